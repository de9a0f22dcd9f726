package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a sliding-window limiter backed by a Redis sorted set
// per key. All accounting happens inside a single pipeline, so two
// concurrent attempts from the same address cannot undercount each other,
// and contention is per-key only.
type RedisLimiter struct {
	client  *redis.Client
	prefix  string
	window  time.Duration
	ceiling int
}

// NewRedisLimiter creates a limiter allowing up to ceiling attempts per
// key within a trailing window.
func NewRedisLimiter(client *redis.Client, prefix string, window time.Duration, ceiling int) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		prefix:  prefix,
		window:  window,
		ceiling: ceiling,
	}
}

// RecordAndCheck appends the attempt to the key's window and returns
// whether the key (attempt included) is still at or under the ceiling.
func (l *RedisLimiter) RecordAndCheck(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	windowStart := now.Add(-l.window).UnixNano()

	// Random suffix keeps concurrent same-nanosecond members distinct;
	// a shared member would silently collapse two attempts into one.
	var nonce [4]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return false, fmt.Errorf("failed to generate member nonce: %w", err)
	}
	member := fmt.Sprintf("%d-%s", now.UnixNano(), hex.EncodeToString(nonce[:]))

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	return zcard.Val() <= int64(l.ceiling), nil
}
