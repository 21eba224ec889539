package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	AppEnv     string // 应用环境 (development/production)
	ServerPort string
	LogLevel   string
	LogFile    string // 非空时日志同时写入该文件并按大小轮转

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string // Redis Key 前缀

	JWTSecret           string
	SessionTTL          time.Duration
	RoomTTL             time.Duration
	LoginDelay          time.Duration
	JoinDelay           time.Duration
	JoinRequireLiveRoom bool

	RateLimitMax      int
	RateLimitWindow   time.Duration
	CORSAllowedOrigin string
}

// LoadConfig 先加载 .env (如果存在)，再从环境变量读取配置
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // 忽略错误，允许只使用环境变量
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom 使用给定的查找函数读取配置并校验必填项
func LoadConfigFrom(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}

	cfg := &Config{
		AppEnv:            env.stringVar("APP_ENV", "development"),
		ServerPort:        env.stringVar("SERVER_PORT", "8080"),
		LogLevel:          env.stringVar("LOG_LEVEL", "info"),
		LogFile:           env.stringVar("LOG_FILE", ""),
		DBUser:            env.stringVar("MYSQL_USER", "root"),
		DBPassword:        env.stringVar("MYSQL_PASSWORD", ""),
		DBHost:            env.stringVar("MYSQL_HOST", "127.0.0.1"),
		DBPort:            env.stringVar("MYSQL_PORT", "3306"),
		DBName:            env.stringVar("MYSQL_DATABASE", "yihuitong"),
		RedisAddr:         env.stringVar("REDIS_ADDR", ""),
		RedisPassword:     env.stringVar("REDIS_PASSWORD", ""),
		KeyPrefix:         env.stringVar("REDIS_KEY_PREFIX", "yht:"),
		JWTSecret:         env.stringVar("JWT_SECRET", ""),
		CORSAllowedOrigin: env.stringVar("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}

	cfg.RedisDB = env.intVar("REDIS_DB", 0)
	cfg.SessionTTL = time.Duration(env.intVar("SESSION_TTL_HOURS", 24)) * time.Hour
	cfg.RoomTTL = time.Duration(env.intVar("ROOM_TTL_SEC", 30)) * time.Second
	cfg.LoginDelay = env.durationVar("LOGIN_DELAY", 1500*time.Millisecond)
	cfg.JoinDelay = env.durationVar("JOIN_DELAY", 1500*time.Millisecond)
	cfg.JoinRequireLiveRoom = env.boolVar("JOIN_REQUIRE_LIVE_ROOM", false)
	cfg.RateLimitMax = env.intVar("RATE_LIMIT_MAX", 100)
	cfg.RateLimitWindow = env.durationVar("RATE_LIMIT_WINDOW", time.Second)

	if err := env.err(); err != nil {
		return nil, err
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.SessionTTL <= 0 || cfg.RoomTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS and ROOM_TTL_SEC must be positive")
	}
	if cfg.RateLimitMax <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// envReader 读取带默认值的环境变量，并记录第一个解析错误
type envReader struct {
	getenv   func(string) string
	firstErr error
}

func (e *envReader) stringVar(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) intVar(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envReader) boolVar(key string, def bool) bool {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envReader) durationVar(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *envReader) fail(key, value string, err error) {
	if e.firstErr == nil {
		e.firstErr = fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
}

func (e *envReader) err() error { return e.firstErr }
