package worker

import (
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/tasks"
)

// Scheduler 周期性投递清理任务
type Scheduler struct {
	scheduler *asynq.Scheduler
	log       *logrus.Entry
}

// NewScheduler 创建调度器并注册周期任务
func NewScheduler(redisOpt asynq.RedisClientOpt, logger *logrus.Logger) (*Scheduler, error) {
	logEntry := logger.WithField("component", "scheduler")
	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: newAsynqLogger(logEntry),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logEntry.WithError(err).Warn("Failed to enqueue periodic task")
				return
			}
			logEntry.WithField("task_id", info.ID).Debug("Periodic task enqueued")
		},
	})
	entryID, err := s.Register(tasks.SweepSchedule, tasks.NewSweepTask())
	if err != nil {
		return nil, err
	}
	logEntry.WithFields(logrus.Fields{
		"entry_id": entryID,
		"spec":     tasks.SweepSchedule,
	}).Info("Sweep task scheduled")
	return &Scheduler{scheduler: s, log: logEntry}, nil
}

// Start 运行调度器，应在单独的 goroutine 中调用
func (s *Scheduler) Start() {
	s.log.Info("Scheduler starting...")
	if err := s.scheduler.Run(); err != nil {
		s.log.WithError(err).Error("Scheduler stopped with error")
	}
}

// Shutdown 停止调度器
func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
	s.log.Info("Scheduler shut down complete.")
}
