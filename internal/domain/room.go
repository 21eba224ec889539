package domain

import (
	"fmt"
	"time"
)

// 房间号码的取值范围，四位十进制数。
const (
	MinRoomNumber = 1000
	MaxRoomNumber = 9999
)

// Role 表示用户在会议中的角色。
type Role string

const (
	RoleHost        Role = "host"        // 房主：创建房间，产生字幕
	RoleParticipant Role = "participant" // 参会者：只观看字幕
)

// ParseRole 将字符串解析为 Role。
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleHost, RoleParticipant:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Room 表示一个进行中的会议房间，只保存在 Redis 中，不写入 MySQL。
type Room struct {
	Number    string    `json:"roomNumber"` // 四位房间号码
	HostEmail string    `json:"hostEmail"`  // 创建者邮箱
	HostName  string    `json:"hostName"`   // 创建者显示名称
	CreatedAt time.Time `json:"createdAt"`  // 创建时间
}

// FormatRoomNumber 将整数房间号格式化为四位字符串。
func FormatRoomNumber(n int) string {
	return fmt.Sprintf("%04d", n)
}
