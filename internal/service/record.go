package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/repository"
)

// MeetingDetail 是一场历史会议及其字幕。
type MeetingDetail struct {
	Record     domain.MeetingRecord    `json:"record"`
	Transcript []domain.TranscriptLine `json:"transcript"`
}

// RecordService 提供历史会议的只读查询。
type RecordService struct {
	meetingRepo repository.MeetingRepository
}

// NewRecordService 创建 RecordService 实例。
func NewRecordService(meetingRepo repository.MeetingRepository) *RecordService {
	if meetingRepo == nil {
		panic("MeetingRepository cannot be nil for RecordService")
	}
	return &RecordService{meetingRepo: meetingRepo}
}

// List 返回全部历史会议，最新的在前。
func (s *RecordService) List(ctx context.Context) ([]domain.MeetingRecord, error) {
	records, err := s.meetingRepo.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list meeting records")
		return nil, ErrInternalServer
	}
	if records == nil {
		records = []domain.MeetingRecord{}
	}
	return records, nil
}

// Detail 返回一场会议及其字幕，未知 ID 返回 ErrMeetingNotFound。
func (s *RecordService) Detail(ctx context.Context, id string) (*MeetingDetail, error) {
	logCtx := logrus.WithField("meeting_id", id)
	record, err := s.meetingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			logCtx.Debug("Meeting record not found")
			return nil, ErrMeetingNotFound
		}
		logCtx.WithError(err).Error("Failed to load meeting record")
		return nil, ErrInternalServer
	}
	lines, err := s.meetingRepo.Transcript(ctx, id)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load meeting transcript")
		return nil, ErrInternalServer
	}
	if lines == nil {
		lines = []domain.TranscriptLine{}
	}
	return &MeetingDetail{Record: *record, Transcript: lines}, nil
}
