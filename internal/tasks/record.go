package tasks

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"yihuitong/internal/domain"
)

// MeetingID 由房间号与开始时间确定，同一场会议重复归档得到相同 ID。
func (p ArchivePayload) MeetingID() string {
	name := p.RoomNumber + "|" + p.StartedAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// ToRecord 把归档数据转换为历史会议及字幕。
// 每条实时字幕拆成原文、译文两行，与示例历史会议的格式一致。
func (p ArchivePayload) ToRecord() (*domain.MeetingRecord, []domain.TranscriptLine) {
	record := &domain.MeetingRecord{
		ID:         p.MeetingID(),
		Title:      fmt.Sprintf("%d年%d月%d日 会议", p.StartedAt.Year(), int(p.StartedAt.Month()), p.StartedAt.Day()),
		RoomNumber: p.RoomNumber,
		StartTime:  p.StartedAt.Format("15:04"),
		EndTime:    p.EndedAt.Format("15:04"),
		Duration:   FormatMeetingLength(p.EndedAt.Sub(p.StartedAt)),
		Status:     domain.MeetingStatusEnded,
		StartedAt:  p.StartedAt,
	}

	lines := make([]domain.TranscriptLine, 0, len(p.Lines)*2)
	seq := 0
	for _, l := range p.Lines {
		seq++
		lines = append(lines, domain.TranscriptLine{MeetingID: record.ID, Seq: seq, Time: l.Time, Text: l.Original})
		if l.Translated != "" {
			seq++
			lines = append(lines, domain.TranscriptLine{MeetingID: record.ID, Seq: seq, Time: l.Time, Text: l.Translated})
		}
	}
	return record, lines
}

// FormatMeetingLength 把会议时长格式化为 "1小时15分钟" 或 "45分钟"。
func FormatMeetingLength(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	if minutes >= 60 {
		return fmt.Sprintf("%d小时%d分钟", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d分钟", minutes)
}
