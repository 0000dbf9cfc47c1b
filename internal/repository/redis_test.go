package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisRevocationStore(t *testing.T) {
	mr, client := newMiniRedis(t)
	store := NewRedisRevocationStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.MarkRevoked(ctx, "jti-1", time.Hour))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Hour, mr.TTL(revokedPrefix+"jti-1"))

	// Marking twice is harmless.
	require.NoError(t, store.MarkRevoked(ctx, "jti-1", time.Hour))

	mr.FastForward(time.Hour)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStoreUnavailable(t *testing.T) {
	mr, client := newMiniRedis(t)
	store := NewRedisRevocationStore(client)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}

func TestRedisRateLimiter(t *testing.T) {
	mr, client := newMiniRedis(t)
	limiter := NewRedisRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	mr.FastForward(time.Minute)
	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "window resets")
}

func TestRedisRateLimiterKeyAlwaysExpires(t *testing.T) {
	mr, client := newMiniRedis(t)
	limiter := NewRedisRateLimiter(client, 1, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, time.Minute, mr.TTL(rateLimitPrefix+"10.0.0.1"), "hit %d", i+1)
	}
	v, err := mr.Get(rateLimitPrefix + "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists(rateLimitPrefix+"10.0.0.1"))
}

func TestRedisRateLimiterUnavailable(t *testing.T) {
	mr, client := newMiniRedis(t)
	limiter := NewRedisRateLimiter(client, 1, time.Minute)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
}
