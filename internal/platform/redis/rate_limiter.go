package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a sliding-window request limiter backed by a Redis
// sorted set per caller. Each request is recorded with its timestamp as the
// score; requests older than the window are pruned before counting.
type RateLimiter struct {
	client *redis.Client
	logger *slog.Logger
	limit  int
	window time.Duration
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
// If logger is nil, a default logger will be used.
func NewRateLimiter(client *redis.Client, logger *slog.Logger, limit int, window time.Duration) *RateLimiter {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		panic("rate limit must be positive")
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		client: client,
		logger: logger.With(slog.String("component", "rate_limiter")),
		limit:  limit,
		window: window,
	}
}

// Allow records a request for the caller and reports whether it falls within
// the limit. Counting and recording happen atomically in a pipeline so
// concurrent requests cannot both slip under the limit.
func (r *RateLimiter) Allow(ctx context.Context, callerID string) (bool, error) {
	key := "rate:" + callerID
	now := time.Now().UTC()
	windowStart := now.Add(-r.window)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to apply rate limit: %w", err)
	}

	return count.Val() <= int64(r.limit), nil
}

// Limit returns the configured number of requests allowed per window.
func (r *RateLimiter) Limit() int {
	return r.limit
}

// Window returns the configured window duration.
func (r *RateLimiter) Window() time.Duration {
	return r.window
}
