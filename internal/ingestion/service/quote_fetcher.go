package service

import (
	"context"
	"errors"

	"golang-etf-dashboard/internal/ingestion/dto"
	"golang-etf-dashboard/internal/ingestion/repository"
	"golang-etf-dashboard/pkg/keypool"
	"golang-etf-dashboard/pkg/logger"
)

// QuoteFetcher retrieves a quote for one symbol with provider failover:
// primary with credential rotation first, the secondary when the primary
// yields no usable price. A nil quote with nil error is the normal
// "no data this cycle" outcome.
type QuoteFetcher struct {
	log     *logger.Logger
	keys    *keypool.Pool
	primary repository.FinnhubRepository
	backup  repository.YahooFinanceRepository
}

// NewQuoteFetcher creates a new QuoteFetcher. The key pool is owned by the
// fetcher and drives rotation across rate-limited attempts.
func NewQuoteFetcher(log *logger.Logger, keys *keypool.Pool, primary repository.FinnhubRepository, backup repository.YahooFinanceRepository) *QuoteFetcher {
	return &QuoteFetcher{
		log:     log,
		keys:    keys,
		primary: primary,
		backup:  backup,
	}
}

// Fetch returns the best available quote for the symbol, or (nil, nil)
// when no provider has data. Provider failures degrade to the next option
// and are never cycle-fatal.
func (f *QuoteFetcher) Fetch(ctx context.Context, symbol string) (*dto.Quote, error) {
	primary := f.fetchPrimary(ctx, symbol)
	if primary.Usable() && primary.Volume > 0 {
		return primary, nil
	}

	backup, err := f.backup.GetQuote(ctx, symbol)
	if err != nil {
		f.log.WarnContext(ctx, "Secondary provider failed",
			logger.ErrorField(err), logger.StringField("symbol", symbol))
		backup = nil
	}

	switch {
	case primary.Usable() && backup.Usable():
		// Both partially succeeded: keep the primary-sourced quote and
		// merge the secondary-only volume onto it.
		primary.Volume = backup.Volume
		return primary, nil
	case primary.Usable():
		return primary, nil
	case backup.Usable():
		return backup, nil
	default:
		return nil, nil
	}
}

// fetchPrimary tries the primary provider with the pool's current
// credential, rotating on rate limits, bounded to one pass over the pool.
func (f *QuoteFetcher) fetchPrimary(ctx context.Context, symbol string) *dto.Quote {
	for attempt := 0; attempt < f.keys.Size(); attempt++ {
		quote, err := f.primary.GetQuote(ctx, symbol, f.keys.Current())
		if err == nil {
			return quote
		}
		if errors.Is(err, repository.ErrRateLimited) {
			f.log.DebugContext(ctx, "Primary provider rate limited, rotating credential",
				logger.StringField("symbol", symbol), logger.IntField("attempt", attempt+1))
			f.keys.Rotate()
			continue
		}
		f.log.WarnContext(ctx, "Primary provider failed",
			logger.ErrorField(err), logger.StringField("symbol", symbol))
		return nil
	}
	f.log.WarnContext(ctx, "Exhausted credential pool for symbol",
		logger.StringField("symbol", symbol), logger.IntField("pool_size", f.keys.Size()))
	return nil
}
