// Package cache connects to Dragonfly/Redis, which holds the per-client
// request counters used to throttle recommendation submissions.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const clientName = "pai-placement"

// Cache owns the Redis connection and the submission rate limiter built on it.
type Cache struct {
	Client *redis.Client

	// Limiter is nil when rate limiting is disabled.
	Limiter *RateLimiter
}

// ParseURL validates a redis:// or rediss:// connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects to the cache and verifies it answers PING. When perMinute is
// positive the returned Cache carries a limiter allowing that many
// submissions per client each minute.
func New(ctx context.Context, url string, perMinute int) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.ClientName = clientName
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return newCache(client, perMinute), nil
}

func newCache(client *redis.Client, perMinute int) *Cache {
	c := &Cache{Client: client}
	if perMinute > 0 {
		c.Limiter = NewRateLimiter(client, perMinute, time.Minute)
	}
	return c
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck backs the /readyz endpoint.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache unreachable: %w", err)
	}
	return nil
}
