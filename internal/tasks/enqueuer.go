package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Enqueuer 通过 asynq 客户端投递后台任务。
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer 创建 Enqueuer 实例
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	if client == nil {
		panic("asynq client cannot be nil for Enqueuer")
	}
	return &Enqueuer{client: client}
}

// EnqueueArchive 投递会议归档任务。
func (e *Enqueuer) EnqueueArchive(ctx context.Context, payload ArchivePayload) error {
	task, err := NewArchiveTask(payload)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue archive task for room %s: %w", payload.RoomNumber, err)
	}
	logrus.WithFields(logrus.Fields{
		"task_id":     info.ID,
		"queue":       info.Queue,
		"room_number": payload.RoomNumber,
	}).Info("Archive task enqueued")
	return nil
}
