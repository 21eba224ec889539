package dto

import "yihuitong/internal/domain"

// 服务端推送的消息类型
const (
	TypeSnapshot     = "snapshot"
	TypeDuration     = "duration"
	TypeSubtitle     = "subtitle"
	TypeMuteState    = "mute_state"
	TypeUserJoined   = "user_joined"
	TypeUserLeft     = "user_left"
	TypeMeetingEnded = "meeting_ended"
	TypePong         = "pong"
	TypeError        = "error"
)

// 客户端可以发送的消息类型
const (
	ClientTypeMute = "mute"
	ClientTypePing = "ping"
)

// ClientMessage 表示从客户端 WebSocket 收到的消息。
type ClientMessage struct {
	Type  string `json:"type"`
	Muted *bool  `json:"muted,omitempty"`
}

// SnapshotMessage 在连接建立时发送给新客户端。
type SnapshotMessage struct {
	Type       string                `json:"type"`
	RoomNumber string                `json:"roomNumber"`
	Role       domain.Role           `json:"role"`
	Duration   string                `json:"duration"`
	Muted      bool                  `json:"muted"`
	Subtitles  []domain.SubtitleLine `json:"subtitles"`
}

// DurationMessage 每秒推送一次会议时长。
type DurationMessage struct {
	Type     string `json:"type"`
	Duration string `json:"duration"`
}

// SubtitleMessage 推送新生成的字幕，客户端需把之前正在播放的行置为已播放。
type SubtitleMessage struct {
	Type string              `json:"type"`
	Line domain.SubtitleLine `json:"line"`
}

// MuteStateMessage 通知静音状态变化。
type MuteStateMessage struct {
	Type  string `json:"type"`
	Muted bool   `json:"muted"`
}

// PresenceMessage 通知有人进入或离开房间。
type PresenceMessage struct {
	Type        string      `json:"type"`
	DisplayName string      `json:"displayName"`
	Role        domain.Role `json:"role"`
	Online      int         `json:"online"`
}

// MeetingEndedMessage 通知房主已结束会议。
type MeetingEndedMessage struct {
	Type       string `json:"type"`
	RoomNumber string `json:"roomNumber"`
	Redirect   string `json:"redirect"`
}

// ErrorDTO 表示发送给客户端的错误消息数据结构
type ErrorDTO struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PongMessage 回应客户端 ping，附带当前会议时长。
type PongMessage struct {
	Type     string `json:"type"`
	Duration string `json:"duration"`
}
