// Package cache provides byte-oriented caches used to persist font catalogs,
// adaptive selection weights and visit logs.
//
// All backends implement [Cache]:
//   - [FileCache]: one JSON envelope per key on disk, for the CLI
//   - [MemoryCache]: in-process map with TTL, for tests and single-process servers
//   - [RedisCache]: shared storage for multi-instance deployments
//   - [MongoCache]: document storage with a TTL index
//   - [NullCache]: stores nothing, used when caching is disabled
//
// [Scoped] prefixes keys so independent components can share one backend.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss with (nil, false, nil); errors are reserved for
// backend failures. A ttl of 0 passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Require is Get for values that must exist: a miss is returned as an error
// wrapping [ErrCacheMiss].
func Require(ctx context.Context, c Cache, key string) ([]byte, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	return data, nil
}
