package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/metrics"
	"yihuitong/internal/repository"
	"yihuitong/internal/tasks"
)

// WorkerServer 封装了 Asynq Worker Server 的启动和关闭逻辑
type WorkerServer struct {
	server      *asynq.Server
	log         *logrus.Entry
	meetingRepo repository.MeetingRepository
	sweeper     Sweeper
	metrics     *metrics.Metrics
}

// NewWorkerServer 创建一个新的 WorkerServer 实例
func NewWorkerServer(redisOpt asynq.RedisClientOpt, meetingRepo repository.MeetingRepository, sweeper Sweeper, m *metrics.Metrics, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskLogger(ctx, task).WithField("component", "worker_server").Errorf("Task failed: %v", err)
			}),
			Logger: newAsynqLogger(logEntry),
		},
	)

	return &WorkerServer{
		server:      server,
		log:         logEntry,
		meetingRepo: meetingRepo,
		sweeper:     sweeper,
		metrics:     m,
	}
}

// NewServeMux 注册所有任务处理器
func NewServeMux(meetingRepo repository.MeetingRepository, sweeper Sweeper, m *metrics.Metrics) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeMeetingArchive, NewArchiveHandler(meetingRepo, m))
	mux.Handle(tasks.TypeMeetingSweep, NewSweepHandler(sweeper))
	return mux
}

// Start 运行 Worker Server
// 它应该在一个单独的 goroutine 中调用
func (ws *WorkerServer) Start() {
	mux := NewServeMux(ws.meetingRepo, ws.sweeper, ws.metrics)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown 优雅地关闭 Worker Server
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
