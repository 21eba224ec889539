package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"yihuitong/internal/domain"
	"yihuitong/internal/repository"
)

// GormMeetingRepository 是 MeetingRepository 接口的 GORM 实现
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository 创建 GormMeetingRepository 实例
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMeetingRepository")
	}
	return &GormMeetingRepository{db: db}
}

// List 返回全部历史会议，最新的在前
func (r *GormMeetingRepository) List(ctx context.Context) ([]domain.MeetingRecord, error) {
	var records []domain.MeetingRecord
	err := r.db.WithContext(ctx).Order("started_at DESC").Order("id ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list meeting records: %w", err)
	}
	return records, nil
}

// FindByID 根据 ID 查找会议
func (r *GormMeetingRepository) FindByID(ctx context.Context, id string) (*domain.MeetingRecord, error) {
	var record domain.MeetingRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("gorm: find meeting record '%s': %w", id, err)
	}
	return &record, nil
}

// Transcript 返回会议的全部字幕行
func (r *GormMeetingRepository) Transcript(ctx context.Context, meetingID string) ([]domain.TranscriptLine, error) {
	var lines []domain.TranscriptLine
	err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Order("seq ASC").Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: load transcript for meeting '%s': %w", meetingID, err)
	}
	return lines, nil
}

// SaveArchive 在事务中写入会议及其字幕
func (r *GormMeetingRepository) SaveArchive(ctx context.Context, record *domain.MeetingRecord, lines []domain.TranscriptLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			if isDuplicateEntryError(err) {
				return repository.ErrDuplicateEntry
			}
			return fmt.Errorf("gorm: create meeting record '%s': %w", record.ID, err)
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].MeetingID = record.ID
		}
		if err := tx.CreateInBatches(lines, 100).Error; err != nil {
			return fmt.Errorf("gorm: create transcript for meeting '%s': %w", record.ID, err)
		}
		return nil
	})
}
