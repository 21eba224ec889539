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

// RedisSessionRepository 是 SessionRepository 的 Redis 实现，会话以 JSON 字符串保存。
type RedisSessionRepository struct {
	client *redis.Client
	keys   keys
}

// NewRedisSessionRepository 创建 RedisSessionRepository 实例
func NewRedisSessionRepository(client *redis.Client, keyPrefix string) *RedisSessionRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisSessionRepository")
	}
	return &RedisSessionRepository{client: client, keys: newKeys(keyPrefix)}
}

// Save 写入会话并设置过期时间。
func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("redis: cannot save session without id")
	}
	key := r.keys.session(session.ID)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to save session on key %s: %w", key, err)
	}
	return nil
}

// Find 读取会话，key 不存在时返回 ErrSessionNotFound。
func (r *RedisSessionRepository) Find(ctx context.Context, id string) (*domain.Session, error) {
	key := r.keys.session(id)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis: failed to get session from %s: %w", key, err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal session from %s: %w", key, err)
	}
	return &session, nil
}

// Delete 删除会话。
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	key := r.keys.session(id)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete session %s: %w", key, err)
	}
	return nil
}
