package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned by helpers that require a value to be present.
	ErrCacheMiss = errors.New("cache miss")

	// ErrClosed is returned when a cache is used after Close.
	ErrClosed = errors.New("cache is closed")

	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)
