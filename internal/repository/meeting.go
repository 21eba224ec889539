package repository

import (
	"context"

	"yihuitong/internal/domain"
)

// MeetingRepository 定义了历史会议记录的存储和查询。
type MeetingRepository interface {
	// List 返回全部历史会议，按开始时间倒序，开始时间相同按 ID 排序。
	List(ctx context.Context) ([]domain.MeetingRecord, error)

	// FindByID 根据 ID 查找会议，不存在时返回 ErrMeetingNotFound。
	FindByID(ctx context.Context, id string) (*domain.MeetingRecord, error)

	// Transcript 返回会议字幕，按 Seq 升序。
	Transcript(ctx context.Context, meetingID string) ([]domain.TranscriptLine, error)

	// SaveArchive 在一个事务中保存会议及其字幕。
	SaveArchive(ctx context.Context, record *domain.MeetingRecord, lines []domain.TranscriptLine) error
}
