// Package ratelimit implements the per-author submission throttle as a
// Redis sliding window: a sorted set of submission timestamps per author,
// trimmed to the window on every check. The throttle is advisory by design;
// the transactionally exact guards live in the vote path.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const submissionKeyPrefix = "idea_submissions:"

// RedisLimiter counts an author's submissions in the trailing window.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a limiter allowing limit submissions per window.
func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the author may submit another idea now, and records
// the submission if so. The trim-count-add sequence is not atomic; a
// concurrent double-click can slip one extra submission through, which is
// acceptable for this check.
func (l *RedisLimiter) Allow(ctx context.Context, authorID string, now time.Time) (bool, error) {
	key := submissionKeyPrefix + authorID
	windowStart := now.Add(-l.window)

	var count *redis.IntCmd
	_, err := l.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMicro(), 10))
		count = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("submission window check failed: %w", err)
	}

	if count.Val() >= int64(l.limit) {
		return false, nil
	}

	_, err = l.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(now.UnixMicro()),
			Member: uuid.New().String(),
		})
		// TTL slightly longer than the window so idle keys expire on
		// their own.
		pipe.Expire(ctx, key, l.window+5*time.Minute)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("submission window record failed: %w", err)
	}

	return true, nil
}
