package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookly/bookly-api/internal/auth"
)

const revokedPrefix = "revoked_jti:"

// RedisRevocationStore keeps revoked token ids in Redis. Each entry carries
// its own TTL so the list prunes itself once tokens could no longer verify.
type RedisRevocationStore struct {
	redis *redis.Client
}

var _ auth.RevocationStore = (*RedisRevocationStore)(nil)

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{redis: client}
}

func (r *RedisRevocationStore) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	return r.redis.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

func (r *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	val, err := r.redis.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}
