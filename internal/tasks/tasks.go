package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"yihuitong/internal/domain"
)

// 定义任务类型常量
const (
	TypeMeetingArchive = "meeting:archive" // 会议结束后写入历史记录
	TypeMeetingSweep   = "meeting:sweep"   // 周期性清理空闲的实时会话
)

// SweepSchedule 是清理任务的调度表达式
const SweepSchedule = "@every 5m"

// ArchivePayload 定义了会议归档任务的数据结构
type ArchivePayload struct {
	RoomNumber string                `json:"roomNumber"`
	HostEmail  string                `json:"hostEmail"`
	HostName   string                `json:"hostName"`
	StartedAt  time.Time             `json:"startedAt"`
	EndedAt    time.Time             `json:"endedAt"`
	Lines      []domain.SubtitleLine `json:"lines"`
}

// NewArchiveTask 创建一个新的会议归档任务
func NewArchiveTask(payload ArchivePayload) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive payload for room %s: %w", payload.RoomNumber, err)
	}
	return asynq.NewTask(TypeMeetingArchive, payloadBytes, asynq.MaxRetry(5), asynq.Queue("default")), nil
}

// ParseArchivePayload 从任务中解析归档数据
func ParseArchivePayload(t *asynq.Task) (ArchivePayload, error) {
	var payload ArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return ArchivePayload{}, err
	}
	return payload, nil
}

// NewSweepTask 创建清理任务，清理任务不携带数据
func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypeMeetingSweep, nil, asynq.MaxRetry(0), asynq.Queue("low"))
}
