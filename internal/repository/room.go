package repository

import (
	"context"
	"time"

	"yihuitong/internal/domain"
)

// RoomRepository 定义了进行中房间的存储操作，房间带有过期时间。
type RoomRepository interface {
	// Create 仅当房间号码未被占用时写入，占用时返回 ErrRoomTaken。
	Create(ctx context.Context, room *domain.Room, ttl time.Duration) error

	// Find 根据号码读取房间，不存在时返回 ErrRoomNotFound。
	Find(ctx context.Context, number string) (*domain.Room, error)

	// Exists 检查房间号码是否正在使用。
	Exists(ctx context.Context, number string) (bool, error)

	// Touch 延长房间的过期时间，房间不存在时返回 ErrRoomNotFound。
	Touch(ctx context.Context, number string, ttl time.Duration) error

	// Delete 删除房间，房间不存在时不报错。
	Delete(ctx context.Context, number string) error
}
