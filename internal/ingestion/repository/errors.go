package repository

import "errors"

var (
	// ErrRateLimited signals the primary provider rejected the current
	// credential. The fetcher rotates the key pool and retries.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrCacheMiss signals the cache has no fresh entry for a key.
	ErrCacheMiss = errors.New("cache miss")
)
