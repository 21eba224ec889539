package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/metrics"
	"yihuitong/internal/repository"
	"yihuitong/internal/tasks"
)

// ArchiveHandler 把结束的会议写入历史记录
type ArchiveHandler struct {
	meetingRepo repository.MeetingRepository
	metrics     *metrics.Metrics
}

// NewArchiveHandler 创建 Handler 实例
func NewArchiveHandler(meetingRepo repository.MeetingRepository, m *metrics.Metrics) *ArchiveHandler {
	if meetingRepo == nil {
		panic("MeetingRepository cannot be nil for ArchiveHandler")
	}
	return &ArchiveHandler{meetingRepo: meetingRepo, metrics: m}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *ArchiveHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)
	logCtx.Info("Processing meeting archive task...")

	payload, err := tasks.ParseArchivePayload(t)
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		h.metrics.RecordArchive("invalid")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithField("room_number", payload.RoomNumber)

	record, lines := payload.ToRecord()
	if err := h.meetingRepo.SaveArchive(ctx, record, lines); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 重试时记录已写入
			logCtx.WithField("meeting_id", record.ID).Info("Meeting already archived, skipping")
			h.metrics.RecordArchive("duplicate")
			return nil
		}
		logCtx.WithError(err).Error("Failed to save meeting archive")
		h.metrics.RecordArchive("error")
		return fmt.Errorf("failed to archive meeting %s: %w", record.ID, err)
	}

	h.metrics.RecordArchive("success")
	logCtx.WithFields(logrus.Fields{
		"meeting_id": record.ID,
		"lines":      len(lines),
	}).Info("Meeting archive task processed successfully")
	return nil
}

// taskLogger 返回带有任务信息的日志上下文
func taskLogger(ctx context.Context, t *asynq.Task) *logrus.Entry {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	queue, _ := asynq.GetQueueName(ctx)

	return logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"queue":     queue,
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
}
