// Package redisstate 提供基于 Redis 的会话、房间、限流与路径上报实现。
package redisstate

import "fmt"

// DefaultKeyPrefix 是未配置前缀时使用的 key 前缀。
const DefaultKeyPrefix = "yht:"

type keys struct {
	prefix string
}

func newKeys(prefix string) keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return keys{prefix: prefix}
}

func (k keys) session(id string) string {
	return fmt.Sprintf("%ssession:%s", k.prefix, id)
}

func (k keys) room(number string) string {
	return fmt.Sprintf("%sroom:%s", k.prefix, number)
}

func (k keys) rateLimit(subject string) string {
	return fmt.Sprintf("%sratelimit:%s", k.prefix, subject)
}

func (k keys) channel(name string) string {
	return k.prefix + name
}
