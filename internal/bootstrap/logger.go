package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger 按配置创建 logger，并让全局 logrus 使用相同的格式与输出。
// 返回的 io.Closer 在配置了 LOG_FILE 时关闭日志文件。
func NewLogger(cfg *Config) (*logrus.Logger, io.Closer) {
	log := logrus.New()

	var formatter logrus.Formatter
	if cfg.IsProduction() {
		formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	} else {
		formatter = &logrus.TextFormatter{FullTimestamp: true, ForceColors: cfg.LogFile == ""}
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // cfg.LogLevel 已被 LoadConfig 验证

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     28, // 天
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closer = rotator
	}

	for _, l := range []*logrus.Logger{log, logrus.StandardLogger()} {
		l.SetFormatter(formatter)
		l.SetLevel(logLevel)
		l.SetOutput(out)
	}

	log.Infof("Logger initialized (Level: %s, Format: %T)", logLevel.String(), formatter)
	return log, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
