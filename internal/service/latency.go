package service

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// simulateLatency 模拟一次远端调用的耗时，ctx 取消时提前返回 ctx.Err()。
func simulateLatency(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
