package domain

import "time"

// MeetingStatusEnded 是历史会议的唯一状态。
const MeetingStatusEnded = "已结束"

// MeetingRecord 表示一场已经结束的会议。
type MeetingRecord struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Title      string    `gorm:"size:191;not null" json:"title"`
	RoomNumber string    `gorm:"size:4;index;not null" json:"roomNumber"`
	StartTime  string    `gorm:"size:8;not null" json:"startTime"` // 显示用 hh:mm
	EndTime    string    `gorm:"size:8;not null" json:"endTime"`
	Duration   string    `gorm:"size:64;not null" json:"duration"` // 例如 "1小时15分钟"
	Status     string    `gorm:"size:32;not null" json:"status"`
	StartedAt  time.Time `gorm:"index;not null" json:"-"` // 排序依据
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
}

// TranscriptLine 是历史会议记录中的一行字幕。
type TranscriptLine struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	MeetingID string `gorm:"size:64;index:idx_meeting_seq,priority:1;not null" json:"-"`
	Seq       int    `gorm:"index:idx_meeting_seq,priority:2;not null" json:"-"`
	Time      string `gorm:"size:8;not null" json:"time"`
	Text      string `gorm:"type:text;not null" json:"text"`
}
