package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// RedisRateLimiter counts requests per key in fixed windows shared by every
// API replica.
type RedisRateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{redis: client, limit: limit, window: window}
}

// Allow records one hit for key and reports whether it is within the limit.
// The window key is created with its TTL in the same transaction as the
// increment, so a counter never outlives its window.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rateLimitPrefix + key
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, l.window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}
