package repository

import (
	"context"

	"yihuitong/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
type UserRepository interface {
	// FindByEmail 根据邮箱查找用户，不存在时返回 ErrUserNotFound。
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Upsert 按邮箱创建或更新用户，更新时覆盖显示名称和最近登录时间。
	Upsert(ctx context.Context, user *domain.User) error
}
