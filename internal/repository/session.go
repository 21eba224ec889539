package repository

import (
	"context"
	"time"

	"yihuitong/internal/domain"
)

// SessionRepository 保存登录会话，通常由 Redis 实现。
type SessionRepository interface {
	// Save 写入会话 (覆盖同 ID 的旧会话)。
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error

	// Find 读取会话，不存在或已过期时返回 ErrSessionNotFound。
	Find(ctx context.Context, id string) (*domain.Session, error)

	// Delete 删除会话，会话不存在时不报错。
	Delete(ctx context.Context, id string) error
}
