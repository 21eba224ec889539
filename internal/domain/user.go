// Package domain 定义了译会通后端使用的领域模型与校验规则。
package domain

import "time"

// User 表示登录过的用户，按邮箱唯一。
// 每次登录都会覆盖 DisplayName 并刷新 LastLoginAt。
type User struct {
	ID          uint      `gorm:"primaryKey"`                                       // 用户唯一标识符 (主键)
	Email       string    `gorm:"type:varchar(191);uniqueIndex:idx_email;not null"` // 登录邮箱
	DisplayName string    `gorm:"type:varchar(191);not null"`                       // 显示名称
	LastLoginAt time.Time `gorm:"index"`                                            // 最近一次登录时间
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Identity 是会话中保存的用户身份，所有页面的顶部栏都从这里读取。
type Identity struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// IsZero 判断身份是否为空。
func (i Identity) IsZero() bool {
	return i.DisplayName == "" && i.Email == ""
}

// Session 表示一次登录会话，存储在 Redis 中。
type Session struct {
	ID        string    `json:"id"`        // 会话 ID (uuid)
	Identity  Identity  `json:"identity"`  // 会话绑定的身份
	CreatedAt time.Time `json:"createdAt"` // 会话创建时间
}
