package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiterForTest(t *testing.T, window time.Duration, ceiling int) (*miniredis.Miniredis, *RedisLimiter) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return m, NewRedisLimiter(client, "rl_test", window, ceiling)
}

func TestRedisLimiter_AllowsUpToCeiling(t *testing.T) {
	_, limiter := newLimiterForTest(t, 10*time.Minute, 30)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		allowed, err := limiter.RecordAndCheck(ctx, "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
	}

	// Attempt 31 within the window is denied, and so is every one after.
	for i := 0; i < 3; i++ {
		allowed, err := limiter.RecordAndCheck(ctx, "203.0.113.9")
		require.NoError(t, err)
		assert.False(t, allowed, "attempt past the ceiling should be denied")
	}
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	_, limiter := newLimiterForTest(t, time.Minute, 1)
	ctx := context.Background()

	allowed, err := limiter.RecordAndCheck(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.RecordAndCheck(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different address is unaffected.
	allowed, err = limiter.RecordAndCheck(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiter_WindowExpiry(t *testing.T) {
	m, limiter := newLimiterForTest(t, time.Minute, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.RecordAndCheck(ctx, "198.51.100.7")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.RecordAndCheck(ctx, "198.51.100.7")
	require.NoError(t, err)
	require.False(t, allowed)

	// Once the window has elapsed, attempts are allowed again.
	m.FastForward(2 * time.Minute)
	allowed, err = limiter.RecordAndCheck(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiter_BackendError(t *testing.T) {
	m, limiter := newLimiterForTest(t, time.Minute, 5)
	m.Close()

	_, err := limiter.RecordAndCheck(context.Background(), "10.0.0.3")
	assert.Error(t, err)
}
