package mocks

import (
	"context"

	"yihuitong/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MeetingRepository 是 repository.MeetingRepository 的 mock。
type MeetingRepository struct {
	mock.Mock
}

func (m *MeetingRepository) List(ctx context.Context) ([]domain.MeetingRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.MeetingRecord)
	return records, args.Error(1)
}

func (m *MeetingRepository) FindByID(ctx context.Context, id string) (*domain.MeetingRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*domain.MeetingRecord)
	return record, args.Error(1)
}

func (m *MeetingRepository) Transcript(ctx context.Context, meetingID string) ([]domain.TranscriptLine, error) {
	args := m.Called(ctx, meetingID)
	lines, _ := args.Get(0).([]domain.TranscriptLine)
	return lines, args.Error(1)
}

func (m *MeetingRepository) SaveArchive(ctx context.Context, record *domain.MeetingRecord, lines []domain.TranscriptLine) error {
	args := m.Called(ctx, record, lines)
	return args.Error(0)
}
