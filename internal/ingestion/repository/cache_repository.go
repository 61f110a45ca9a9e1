package repository

import (
	"context"
	"time"

	redisPkg "golang-etf-dashboard/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// CacheRepository is the TTL-bounded read-through cache in front of the
// store. Entries are written as a side effect of successful ingestion
// cycles; a read past the TTL is a miss. Store fallback on miss belongs to
// the read-side caller, not here.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

type cacheRepository struct {
	client *redisPkg.Client
	ttl    time.Duration
}

// NewCacheRepository creates a new instance of CacheRepository.
func NewCacheRepository(client *redisPkg.Client, ttl time.Duration) CacheRepository {
	return &cacheRepository{client: client, ttl: ttl}
}

// Get returns the cached payload, or ErrCacheMiss when the key is absent
// or its TTL has elapsed.
func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Set overwrites the payload and restarts the TTL clock.
func (r *cacheRepository) Set(ctx context.Context, key string, payload []byte) error {
	return r.client.Set(ctx, key, payload, r.ttl).Err()
}
