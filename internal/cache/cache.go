// Package cache provides the page cache used by read-heavy views.
//
// Two backends implement Cache: an in-process map with lazy expiry and a
// Redis-backed store. New picks Redis when an address is configured and
// reachable and falls back to memory otherwise.
package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops every entry owned by this cache.
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// New returns a Redis cache for addr, or a memory cache when addr is empty
// or Redis does not answer.
func New(addr string, logger *zap.SugaredLogger) Cache {
	if addr == "" {
		if logger != nil {
			logger.Infow("No Redis address configured; using in-memory cache")
		}
		return NewMemory()
	}

	rc := NewRedis(addr, DefaultRedisPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rc.Ping(ctx); err != nil {
		if logger != nil {
			logger.Warnw("Redis unavailable; using in-memory cache", "addr", addr, "error", err)
		}
		_ = rc.Close()
		return NewMemory()
	}
	if logger != nil {
		logger.Infow("Cache connection established", "addr", addr)
	}
	return rc
}
