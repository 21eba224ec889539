package redisstate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"yihuitong/internal/navigator"
)

// RedisPathPublisher 将路径变更消息发布到 Redis 频道。
type RedisPathPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPathPublisher 创建 RedisPathPublisher 实例
func NewRedisPathPublisher(client *redis.Client, keyPrefix string) *RedisPathPublisher {
	if client == nil {
		panic("redis client cannot be nil for RedisPathPublisher")
	}
	return &RedisPathPublisher{
		client:  client,
		channel: newKeys(keyPrefix).channel(navigator.PathChangeType),
	}
}

// Channel 返回发布使用的频道名。
func (p *RedisPathPublisher) Channel() string {
	return p.channel
}

// Report 发布一条路径变更消息。
func (p *RedisPathPublisher) Report(ctx context.Context, change navigator.PathChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal path change: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis: failed to publish on %s: %w", p.channel, err)
	}
	return nil
}
