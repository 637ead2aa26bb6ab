package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache and prefixes every key. It is used to give each
// component (catalog, adaptive weights, visits) its own namespace on a
// shared backend.
//
// Example usage:
//
//	shared, _ := cache.NewFileCache(dir)
//	weights := cache.NewScoped(shared, "adaptive:")
//	visits := cache.NewScoped(shared, "visits:")
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped creates a prefixed view of inner. A nil inner is replaced by a
// NullCache. Nested scopes concatenate their prefixes.
func NewScoped(inner Cache, prefix string) *Scoped {
	if inner == nil {
		inner = NewNullCache()
	}
	if s, ok := inner.(*Scoped); ok {
		return &Scoped{inner: s.inner, prefix: s.prefix + prefix}
	}
	return &Scoped{inner: inner, prefix: prefix}
}

// Prefix returns the full key prefix.
func (s *Scoped) Prefix() string { return s.prefix }

// Get retrieves a prefixed key.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores a prefixed key.
func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

// Delete removes a prefixed key.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close does nothing: the scope does not own the shared backend.
func (s *Scoped) Close() error {
	return nil
}

var _ Cache = (*Scoped)(nil)
