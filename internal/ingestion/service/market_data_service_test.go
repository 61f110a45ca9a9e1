package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang-etf-dashboard/internal/entity"
	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/dto"
	"golang-etf-dashboard/internal/ingestion/repository"
	"golang-etf-dashboard/pkg/common"
	"golang-etf-dashboard/pkg/logger"
	"golang-etf-dashboard/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubFetcher struct {
	quotes map[string]*dto.Quote
	errs   map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, symbol string) (*dto.Quote, error) {
	if err, ok := s.errs[symbol]; ok {
		return nil, err
	}
	return s.quotes[symbol], nil
}

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	payload, ok := c.entries[key]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return payload, nil
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte) error {
	c.entries[key] = payload
	return nil
}

type marketServiceFixture struct {
	svc          *MarketDataService
	snapshotRepo repository.SnapshotRepository
	cache        *memoryCache
	db           *gorm.DB
}

func newMarketServiceFixture(t *testing.T, symbols []entity.Symbol, fetcher Fetcher) *marketServiceFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// Every in-memory sqlite connection is its own database, so keep the
	// pool at a single connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entity.Symbol{}, &entity.MarketSnapshot{}, &entity.QuoteHistory{}))
	for i := range symbols {
		require.NoError(t, db.Create(&symbols[i]).Error)
	}

	cfg := &config.Config{}
	cfg.Pipeline.BatchSize = 2
	cfg.Pipeline.BatchDelay = time.Millisecond
	cfg.Pipeline.HistoryRetentionDays = 90

	cache := newMemoryCache()
	snapshotRepo := repository.NewSnapshotRepository(db)
	svc := NewMarketDataService(cfg, logger.NewNop(),
		repository.NewSymbolsRepository(db), snapshotRepo, cache, fetcher, telegram.NopNotifier{})

	return &marketServiceFixture{svc: svc, snapshotRepo: snapshotRepo, cache: cache, db: db}
}

func TestRunCyclePersistsSnapshotAndHistory(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]*dto.Quote{
		"SPY": {
			Symbol:         "SPY",
			Price:          450.25,
			PreviousClose:  448.10,
			Change:         2.15,
			ChangePercent:  0.48,
			Volume:         52_000_000,
			ProviderSource: "finnhub",
			ObservedAt:     time.Now(),
		},
	}}
	fixture := newMarketServiceFixture(t, []entity.Symbol{
		{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF},
	}, fetcher)

	result, err := fixture.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Symbols)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 0, result.Failed)

	snapshot, err := fixture.snapshotRepo.GetSnapshot(context.Background(), "SPY")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 450.25, snapshot.Price)
	assert.Equal(t, 2.15, snapshot.Change)

	history, err := fixture.snapshotRepo.GetHistory(context.Background(), "SPY",
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 450.25, history[0].Price)
}

func TestRunCycleSkipsSymbolsWithoutData(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]*dto.Quote{
		"SPY": {Symbol: "SPY", Price: 450.25, ProviderSource: "finnhub", ObservedAt: time.Now()},
	}}
	fixture := newMarketServiceFixture(t, []entity.Symbol{
		{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF},
		{Ticker: "XYZ", Name: "Delisted Fund", AssetClass: entity.AssetClassETF},
	}, fetcher)

	result, err := fixture.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Symbols)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.NoData)
	assert.Equal(t, 0, result.Failed)

	snapshot, err := fixture.snapshotRepo.GetSnapshot(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Nil(t, snapshot, "symbols with no data must leave no snapshot behind")
}

func TestRunCycleIsolatesPerSymbolFailures(t *testing.T) {
	fetcher := &stubFetcher{
		quotes: map[string]*dto.Quote{
			"GLD": {Symbol: "GLD", Price: 191.10, ProviderSource: "yahoo_finance", ObservedAt: time.Now()},
		},
		errs: map[string]error{
			"SPY": errors.New("provider unreachable"),
		},
	}
	fixture := newMarketServiceFixture(t, []entity.Symbol{
		{Ticker: "GLD", Name: "SPDR Gold Shares", AssetClass: entity.AssetClassCommodity},
		{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF},
	}, fetcher)

	result, err := fixture.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Failed)

	snapshot, err := fixture.snapshotRepo.GetSnapshot(context.Background(), "GLD")
	require.NoError(t, err)
	require.NotNil(t, snapshot, "one failing symbol must not block the rest of the cycle")
}

func TestRunCyclePurgesExpiredHistory(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]*dto.Quote{
		"SPY": {Symbol: "SPY", Price: 450.25, ProviderSource: "finnhub", ObservedAt: time.Now()},
	}}
	fixture := newMarketServiceFixture(t, []entity.Symbol{
		{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF},
	}, fetcher)

	stale := entity.QuoteHistory{Symbol: "SPY", Price: 400.00, RecordedAt: time.Now().AddDate(0, 0, -91)}
	require.NoError(t, fixture.db.Create(&stale).Error)

	result, err := fixture.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Purged)
}

func TestRunCycleRefreshesCache(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]*dto.Quote{
		"SPY": {Symbol: "SPY", Price: 450.25, ProviderSource: "finnhub", ObservedAt: time.Now()},
		"GLD": {Symbol: "GLD", Price: 191.10, ProviderSource: "yahoo_finance", ObservedAt: time.Now()},
	}}
	fixture := newMarketServiceFixture(t, []entity.Symbol{
		{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF},
		{Ticker: "GLD", Name: "SPDR Gold Shares", AssetClass: entity.AssetClassCommodity},
	}, fetcher)

	_, err := fixture.svc.RunCycle(context.Background())
	require.NoError(t, err)

	payload, err := fixture.cache.Get(context.Background(), fmt.Sprintf(common.CacheKeySnapshotsByClass, entity.AssetClassETF))
	require.NoError(t, err)
	var etfs []entity.MarketSnapshot
	require.NoError(t, json.Unmarshal(payload, &etfs))
	require.Len(t, etfs, 1)
	assert.Equal(t, "SPY", etfs[0].Symbol)

	payload, err = fixture.cache.Get(context.Background(), fmt.Sprintf(common.CacheKeySnapshot, "GLD"))
	require.NoError(t, err)
	var snapshot entity.MarketSnapshot
	require.NoError(t, json.Unmarshal(payload, &snapshot))
	assert.Equal(t, 191.10, snapshot.Price)
}
