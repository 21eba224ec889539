package domain

// SubtitleStatus 表示一条实时字幕的播放状态。
type SubtitleStatus string

const (
	SubtitlePlaying SubtitleStatus = "playing"
	SubtitlePlayed  SubtitleStatus = "played"
)

// SubtitleLine 是会议进行中的一条原文/译文字幕。
type SubtitleLine struct {
	ID         int            `json:"id"`
	Time       string         `json:"time"`       // 时间戳 hh:mm:ss
	Original   string         `json:"original"`   // 原文
	Translated string         `json:"translated"` // 译文
	Status     SubtitleStatus `json:"status"`
}

// CannedSubtitle 是一条预置的原文/译文对。
type CannedSubtitle struct {
	Original   string
	Translated string
}
