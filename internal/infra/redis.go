package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheOptions configure the Redis client holding idempotency records and
// rate-limit counters.
type CacheOptions struct {
	URL string
	// Timeout bounds dialing and every command. A slow cache fails the request
	// instead of holding a ledger transaction open.
	Timeout time.Duration
}

// NewCache connects to Redis and verifies connectivity.
func NewCache(ctx context.Context, opts CacheOptions) (*redis.Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.Timeout > 0 {
		opt.DialTimeout = opts.Timeout
		opt.ReadTimeout = opts.Timeout
		opt.WriteTimeout = opts.Timeout
	}
	opt.ContextTimeoutEnabled = true

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
