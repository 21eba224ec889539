package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"yihuitong/internal/domain"
	"yihuitong/internal/repository"
)

// RedisRoomRepository 是 RoomRepository 的 Redis 实现。
// 每个进行中的房间对应一个带 TTL 的 key，过期即视为会议已结束。
type RedisRoomRepository struct {
	client *redis.Client
	keys   keys
}

// NewRedisRoomRepository 创建 RedisRoomRepository 实例
func NewRedisRoomRepository(client *redis.Client, keyPrefix string) *RedisRoomRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisRoomRepository")
	}
	return &RedisRoomRepository{client: client, keys: newKeys(keyPrefix)}
}

// Create 使用 SETNX 占用房间号码。
func (r *RedisRoomRepository) Create(ctx context.Context, room *domain.Room, ttl time.Duration) error {
	if room == nil || room.Number == "" {
		return fmt.Errorf("redis: cannot create room without number")
	}
	key := r.keys.room(room.Number)
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal room %s: %w", room.Number, err)
	}
	ok, err := r.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis: failed to create room on key %s: %w", key, err)
	}
	if !ok {
		return repository.ErrRoomTaken
	}
	return nil
}

// Find 读取房间信息。
func (r *RedisRoomRepository) Find(ctx context.Context, number string) (*domain.Room, error) {
	key := r.keys.room(number)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("redis: failed to get room from %s: %w", key, err)
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal room from %s: %w", key, err)
	}
	return &room, nil
}

// Exists 检查房间 key 是否存在。
func (r *RedisRoomRepository) Exists(ctx context.Context, number string) (bool, error) {
	key := r.keys.room(number)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check room %s: %w", key, err)
	}
	return n > 0, nil
}

// Touch 刷新房间过期时间。
func (r *RedisRoomRepository) Touch(ctx context.Context, number string, ttl time.Duration) error {
	key := r.keys.room(number)
	ok, err := r.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis: failed to refresh ttl for %s: %w", key, err)
	}
	if !ok {
		return repository.ErrRoomNotFound
	}
	return nil
}

// Delete 删除房间。
func (r *RedisRoomRepository) Delete(ctx context.Context, number string) error {
	key := r.keys.room(number)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete room %s: %w", key, err)
	}
	return nil
}
