package worker

import (
	"context"

	"github.com/hibiken/asynq"
)

// Sweeper 清理空闲的实时会话，由 service.MeetingService 实现
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SweepHandler 处理周期性的会话清理任务
type SweepHandler struct {
	sweeper Sweeper
}

// NewSweepHandler 创建 Handler 实例
func NewSweepHandler(sweeper Sweeper) *SweepHandler {
	if sweeper == nil {
		panic("Sweeper cannot be nil for SweepHandler")
	}
	return &SweepHandler{sweeper: sweeper}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *SweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)

	swept, err := h.sweeper.Sweep(ctx)
	if err != nil {
		// 周期任务下次调度时会再次执行，这里不重试
		logCtx.WithError(err).Errorf("Sweep stopped after %d sessions", swept)
		return nil
	}
	if swept == 0 {
		logCtx.Debug("No idle live sessions to sweep")
		return nil
	}
	logCtx.Infof("Swept %d idle live sessions", swept)
	return nil
}
