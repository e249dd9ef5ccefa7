package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "placement:ratelimit:"

// RateLimiter counts requests per key in a fixed window.
type RateLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit requests per key within each window.
func NewRateLimiter(client redis.Cmdable, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow records one request for key and reports whether it is within the limit.
// The window starts with the first request seen for the key.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rateLimitPrefix + key

	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("incrementing rate counter: %w", err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return false, fmt.Errorf("setting rate window: %w", err)
		}
	}

	return n <= int64(r.limit), nil
}
