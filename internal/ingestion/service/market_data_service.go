package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang-etf-dashboard/internal/entity"
	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/dto"
	"golang-etf-dashboard/internal/ingestion/repository"
	"golang-etf-dashboard/pkg/common"
	"golang-etf-dashboard/pkg/logger"
	"golang-etf-dashboard/pkg/telegram"
	"golang-etf-dashboard/pkg/utils"
)

// Fetcher retrieves one symbol's quote. Satisfied by *QuoteFetcher.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*dto.Quote, error)
}

// CycleResult summarizes one completed market-data cycle.
type CycleResult struct {
	Symbols  int           `json:"symbols"`
	Fetched  int           `json:"fetched"`
	NoData   int           `json:"no_data"`
	Failed   int           `json:"failed"`
	Purged   int64         `json:"purged"`
	Duration time.Duration `json:"duration"`
}

// MarketDataService drives the quote pipeline: batched fetches over the
// symbol universe, grouped persistence, history retention, cache refresh.
type MarketDataService struct {
	cfg          *config.Config
	log          *logger.Logger
	symbolsRepo  repository.SymbolsRepository
	snapshotRepo repository.SnapshotRepository
	cacheRepo    repository.CacheRepository
	fetcher      Fetcher
	notifier     telegram.Notifier
}

// NewMarketDataService creates a new MarketDataService.
func NewMarketDataService(
	cfg *config.Config,
	log *logger.Logger,
	symbolsRepo repository.SymbolsRepository,
	snapshotRepo repository.SnapshotRepository,
	cacheRepo repository.CacheRepository,
	fetcher Fetcher,
	notifier telegram.Notifier,
) *MarketDataService {
	return &MarketDataService{
		cfg:          cfg,
		log:          log,
		symbolsRepo:  symbolsRepo,
		snapshotRepo: snapshotRepo,
		cacheRepo:    cacheRepo,
		fetcher:      fetcher,
		notifier:     notifier,
	}
}

type fetchedQuote struct {
	symbol entity.Symbol
	quote  *dto.Quote
}

// RunCycle executes one bounded ingestion pass. Per-symbol failures are
// logged and isolated; the cycle always runs to completion for the symbols
// that succeeded.
func (s *MarketDataService) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()

	universe, err := s.symbolsRepo.GetUniverse(ctx)
	if err != nil {
		return CycleResult{}, fmt.Errorf("failed to load symbol universe: %w", err)
	}

	result := CycleResult{Symbols: len(universe)}
	successes := s.fetchAll(ctx, universe, &result)

	// Grouped persistence after all batches complete: snapshots first,
	// then one history record per success with the shared cycle timestamp.
	recordedAt := time.Now()
	for _, item := range successes {
		if !item.quote.Usable() {
			continue
		}
		if err := s.snapshotRepo.UpsertSnapshot(ctx, item.symbol.AssetClass, item.quote); err != nil {
			s.log.ErrorContext(ctx, "Failed to upsert snapshot",
				logger.ErrorField(err), logger.StringField("symbol", item.symbol.Ticker))
			result.Failed++
			continue
		}
		if err := s.snapshotRepo.AppendHistory(ctx, item.quote.Symbol, item.quote.Price, item.quote.Volume, recordedAt); err != nil {
			s.log.ErrorContext(ctx, "Failed to append history",
				logger.ErrorField(err), logger.StringField("symbol", item.symbol.Ticker))
		}
		result.Fetched++
	}

	cutoff := recordedAt.AddDate(0, 0, -s.cfg.Pipeline.HistoryRetentionDays)
	purged, err := s.snapshotRepo.PurgeHistoryOlderThan(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to purge history", logger.ErrorField(err))
	}
	result.Purged = purged

	s.refreshCache(ctx)

	result.Duration = time.Since(start)
	s.log.InfoContext(ctx, "Market data cycle completed",
		logger.IntField("symbols", result.Symbols),
		logger.IntField("fetched", result.Fetched),
		logger.IntField("no_data", result.NoData),
		logger.IntField("failed", result.Failed),
		logger.Field("purged", result.Purged),
		logger.DurationField("duration", result.Duration),
	)

	if result.Failed > 0 {
		if err := s.notifier.SendMessage(fmt.Sprintf(
			"⚠️ Market cycle: %d/%d symbols failed, %d no data", result.Failed, result.Symbols, result.NoData)); err != nil {
			s.log.Warn("Failed to send cycle notification", logger.ErrorField(err))
		}
	}

	return result, nil
}

// fetchAll runs the universe in fixed-size batches. Symbols within a batch
// fetch concurrently; batches run sequentially with a pacing delay to
// respect aggregate provider rate ceilings.
func (s *MarketDataService) fetchAll(ctx context.Context, universe []entity.Symbol, result *CycleResult) []fetchedQuote {
	var (
		successes []fetchedQuote
		mu        sync.Mutex
	)

	batchSize := s.cfg.Pipeline.BatchSize
	for offset := 0; offset < len(universe); offset += batchSize {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		end := offset + batchSize
		if end > len(universe) {
			end = len(universe)
		}
		batch := universe[offset:end]

		var wg sync.WaitGroup
		for _, symbol := range batch {
			symbol := symbol
			wg.Add(1)
			utils.GoSafe(s.log, func() {
				defer wg.Done()

				quote, err := s.fetcher.Fetch(ctx, symbol.Ticker)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					s.log.ErrorContext(ctx, "Failed to fetch quote",
						logger.ErrorField(err), logger.StringField("symbol", symbol.Ticker))
					result.Failed++
				case quote == nil:
					result.NoData++
				default:
					successes = append(successes, fetchedQuote{symbol: symbol, quote: quote})
				}
			})
		}
		wg.Wait()

		if end < len(universe) {
			time.Sleep(s.cfg.Pipeline.BatchDelay)
		}
	}

	return successes
}

// refreshCache rewrites the per-class snapshot lists and per-symbol entries
// so downstream readers stay cache-first.
func (s *MarketDataService) refreshCache(ctx context.Context) {
	for _, class := range []entity.AssetClass{entity.AssetClassETF, entity.AssetClassCommodity} {
		snapshots, err := s.snapshotRepo.ListByAssetClass(ctx, class)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to list snapshots for cache refresh",
				logger.ErrorField(err), logger.StringField("asset_class", string(class)))
			continue
		}

		payload, err := json.Marshal(snapshots)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to marshal snapshots", logger.ErrorField(err))
			continue
		}
		if err := s.cacheRepo.Set(ctx, fmt.Sprintf(common.CacheKeySnapshotsByClass, class), payload); err != nil {
			s.log.ErrorContext(ctx, "Failed to refresh class cache",
				logger.ErrorField(err), logger.StringField("asset_class", string(class)))
		}

		for _, snapshot := range snapshots {
			single, err := json.Marshal(snapshot)
			if err != nil {
				continue
			}
			if err := s.cacheRepo.Set(ctx, fmt.Sprintf(common.CacheKeySnapshot, snapshot.Symbol), single); err != nil {
				s.log.ErrorContext(ctx, "Failed to refresh symbol cache",
					logger.ErrorField(err), logger.StringField("symbol", snapshot.Symbol))
			}
		}
	}
}
