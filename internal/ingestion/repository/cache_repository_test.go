package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-etf-dashboard/pkg/common"
	redisPkg "golang-etf-dashboard/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheRepository(t *testing.T, ttl time.Duration) (CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := &redisPkg.Client{Client: redis.NewClient(&redis.Options{Addr: server.Addr()})}
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, ttl), server
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, _ := newTestCacheRepository(t, time.Hour)
	ctx := context.Background()

	key := fmt.Sprintf(common.CacheKeySnapshot, "SPY")
	payload := []byte(`{"symbol":"SPY","price":450.25}`)
	require.NoError(t, repo.Set(ctx, key, payload))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCacheRepositoryMissOnAbsentKey(t *testing.T) {
	repo, _ := newTestCacheRepository(t, time.Hour)

	got, err := repo.Get(context.Background(), "market:snapshot:IWM")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestCacheRepositoryExpiresAfterTTL(t *testing.T) {
	repo, server := newTestCacheRepository(t, time.Hour)
	ctx := context.Background()

	key := fmt.Sprintf(common.CacheKeySnapshotsByClass, "etf")
	require.NoError(t, repo.Set(ctx, key, []byte(`[]`)))

	server.FastForward(time.Hour + time.Second)

	_, err := repo.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheRepositorySetRestartsTTL(t *testing.T) {
	repo, server := newTestCacheRepository(t, time.Hour)
	ctx := context.Background()

	key := common.CacheKeyLatestNews
	require.NoError(t, repo.Set(ctx, key, []byte(`[]`)))
	server.FastForward(45 * time.Minute)
	require.NoError(t, repo.Set(ctx, key, []byte(`[{"id":1}]`)))
	server.FastForward(45 * time.Minute)

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":1}]`), got)
}
