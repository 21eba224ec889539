package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisRateLimiter 使用 INCR + EXPIRE 计数实现固定窗口限流。
type RedisRateLimiter struct {
	client *redis.Client
	keys   keys
}

// NewRedisRateLimiter 创建 RedisRateLimiter 实例
func NewRedisRateLimiter(client *redis.Client, keyPrefix string) *RedisRateLimiter {
	if client == nil {
		panic("redis client cannot be nil for RedisRateLimiter")
	}
	return &RedisRateLimiter{client: client, keys: newKeys(keyPrefix)}
}

// Allow 递增 subject 的计数，返回本次请求是否仍在限额内。
func (r *RedisRateLimiter) Allow(ctx context.Context, subject string, limit int, window time.Duration) (bool, error) {
	key := r.keys.rateLimit(subject)
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", key, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", key, err)
	}
	return count <= int64(limit), nil
}
