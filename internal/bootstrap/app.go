package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "yihuitong/internal/handler/http"
	wsHandler "yihuitong/internal/handler/websocket"
	"yihuitong/internal/hub"
	"yihuitong/internal/metrics"
	gormpersistence "yihuitong/internal/infra/persistence/gorm"
	"yihuitong/internal/infra/setup"
	redisstate "yihuitong/internal/infra/state/redis"
	"yihuitong/internal/service"
	"yihuitong/internal/tasks"
	"yihuitong/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config         *Config
	Log            *logrus.Logger
	DB             *gorm.DB
	RedisClient    *redis.Client
	AsynqClient    *asynq.Client
	AsynqServer    *worker.WorkerServer
	Scheduler      *worker.Scheduler
	Hub            *hub.Hub
	MeetingService *service.MeetingService
	HttpServer     *http.Server

	logCloser  io.Closer
	hubCancel  context.CancelFunc
	hubStopped chan struct{}
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		// logrus 还未配置，直接写 stderr
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log, logCloser := NewLogger(cfg)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	log.Info("Database initialized")

	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")

	m := metrics.NewMetrics()
	clk := clock.New()

	// 4. 初始化 Repositories
	log.Info("Initializing repositories...")
	userRepo := gormpersistence.NewGormUserRepository(db)
	meetingRepo := gormpersistence.NewGormMeetingRepository(db)
	sessionRepo := redisstate.NewRedisSessionRepository(redisClient, cfg.KeyPrefix)
	roomRepo := redisstate.NewRedisRoomRepository(redisClient, cfg.KeyPrefix)
	rateLimiter := redisstate.NewRedisRateLimiter(redisClient, cfg.KeyPrefix)
	pathPublisher := redisstate.NewRedisPathPublisher(redisClient, cfg.KeyPrefix)
	log.WithField("channel", pathPublisher.Channel()).Info("Repositories initialized")

	// 5. 初始化 Services 与 Hub
	log.Info("Initializing services...")
	authService, err := service.NewAuthService(userRepo, sessionRepo, clk, m, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		LoginDelay: cfg.LoginDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo, clk, m, service.RoomConfig{
		RoomTTL:         cfg.RoomTTL,
		JoinDelay:       cfg.JoinDelay,
		RequireLiveRoom: cfg.JoinRequireLiveRoom,
	})
	hubInstance := hub.NewHub(m)
	meetingService := service.NewMeetingService(hubInstance, roomRepo, tasks.NewEnqueuer(asynqClient), clk, m).
		WithRoomTTL(cfg.RoomTTL)
	roomService.WithLiveRooms(meetingService)
	hubInstance.SetEventHandler(meetingService)
	recordService := service.NewRecordService(meetingRepo)
	log.Info("Services initialized")

	// 6. 初始化 Worker Server 与 Scheduler
	workerServer := worker.NewWorkerServer(redisClientOpt, meetingRepo, meetingService, m, log)
	scheduler, err := worker.NewScheduler(redisClientOpt, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	log.Info("Worker server initialized")

	// 7. 初始化 Gin Engine 和路由
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := NewRouter(RouterDeps{
		Log:               log,
		AuthHandler:       httpHandler.NewAuthHandler(authService),
		SelectHandler:     httpHandler.NewSelectHandler(authService),
		RoomHandler:       httpHandler.NewRoomHandler(roomService),
		MeetingHandler:    httpHandler.NewMeetingHandler(meetingService, authService),
		RecordHandler:     httpHandler.NewRecordHandler(recordService),
		WSHandler:         wsHandler.NewWebSocketHandler(hubInstance, meetingService, cfg.CORSAllowedOrigin),
		Identifier:        authService,
		Reporter:          pathPublisher,
		Limiter:           rateLimiter,
		Metrics:           m,
		RateLimitMax:      cfg.RateLimitMax,
		RateLimitWindow:   cfg.RateLimitWindow,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
	})
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Scheduler:      scheduler,
		Hub:            hubInstance,
		MeetingService: meetingService,
		HttpServer:     httpServer,
		logCloser:      logCloser,
	}, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	hubCtx, cancel := context.WithCancel(context.Background())
	a.hubCancel = cancel
	a.hubStopped = make(chan struct{})
	go func() {
		defer close(a.hubStopped)
		a.Hub.Run(hubCtx)
	}()
	a.Log.Info("Hub routine started")

	go a.AsynqServer.Start()
	go a.Scheduler.Start()
	a.Log.Info("Asynq worker server and scheduler started")

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 停止接收新请求
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 停止实时会话与 Hub
	a.MeetingService.StopAll()
	if a.hubCancel != nil {
		a.hubCancel()
		<-a.hubStopped
		a.Log.Info("Hub stopped.")
	}

	// 3. 关闭调度器与 Worker
	if a.Scheduler != nil {
		a.Scheduler.Shutdown()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 4. 关闭 Asynq Client 与 Redis 连接
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	// 5. 关闭数据库连接池
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
