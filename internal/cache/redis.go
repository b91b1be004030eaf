// Package cache stores rendered API responses in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pincode-hexmap/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pincode-hexmap:"

// ResponseCache keeps rendered payloads for a fixed TTL. A nil
// *ResponseCache is valid and never hits.
type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResponseCache connects to Redis at addr. It returns a nil cache and no
// error when addr is empty.
func NewResponseCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ResponseCache, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache: failed to connect to Redis at %s: %w", addr, err)
	}

	return &ResponseCache{rdb: rdb, ttl: ttl}, nil
}

// Get returns the cached payload for key. ok is false on a miss.
func (c *ResponseCache) Get(ctx context.Context, key string) (payload []byte, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}

	payload, err = c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMissesTotal.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: failed to get %s: %w", key, err)
	}

	metrics.CacheHitsTotal.Inc()
	return payload, true, nil
}

// Set stores payload under key for the cache TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, payload []byte) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to set %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *ResponseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
