package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-etf-dashboard/internal/entity"
	"golang-etf-dashboard/internal/ingestion/repository"
	"golang-etf-dashboard/pkg/common"
	"golang-etf-dashboard/pkg/logger"
)

// ReaderService is the read-only surface consumed by the dashboard's HTTP
// layer. Reads are cache-first; on a miss it falls back to the store. The
// fallback lives here, not in the cache.
type ReaderService struct {
	log          *logger.Logger
	snapshotRepo repository.SnapshotRepository
	newsRepo     repository.NewsRepository
	cacheRepo    repository.CacheRepository
}

// NewReaderService creates a new ReaderService.
func NewReaderService(
	log *logger.Logger,
	snapshotRepo repository.SnapshotRepository,
	newsRepo repository.NewsRepository,
	cacheRepo repository.CacheRepository,
) *ReaderService {
	return &ReaderService{
		log:          log,
		snapshotRepo: snapshotRepo,
		newsRepo:     newsRepo,
		cacheRepo:    cacheRepo,
	}
}

// GetLatestSnapshots returns the current snapshots of one asset class.
func (s *ReaderService) GetLatestSnapshots(ctx context.Context, class entity.AssetClass) ([]entity.MarketSnapshot, error) {
	key := fmt.Sprintf(common.CacheKeySnapshotsByClass, class)
	if payload, err := s.cacheRepo.Get(ctx, key); err == nil {
		var snapshots []entity.MarketSnapshot
		if err := json.Unmarshal(payload, &snapshots); err == nil {
			return snapshots, nil
		}
		s.log.Warn("Discarding undecodable cache payload", logger.StringField("key", key))
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		s.log.WarnContext(ctx, "Cache read failed, falling back to store", logger.ErrorField(err))
	}

	return s.snapshotRepo.ListByAssetClass(ctx, class)
}

// GetSnapshot returns the current snapshot for one symbol, or nil when the
// symbol has never been fetched.
func (s *ReaderService) GetSnapshot(ctx context.Context, symbol string) (*entity.MarketSnapshot, error) {
	key := fmt.Sprintf(common.CacheKeySnapshot, symbol)
	if payload, err := s.cacheRepo.Get(ctx, key); err == nil {
		var snapshot entity.MarketSnapshot
		if err := json.Unmarshal(payload, &snapshot); err == nil {
			return &snapshot, nil
		}
		s.log.Warn("Discarding undecodable cache payload", logger.StringField("key", key))
	}

	return s.snapshotRepo.GetSnapshot(ctx, symbol)
}

// GetHistory returns the bounded price series of one symbol. History reads
// always hit the store; the series changes once per cycle and is not cached.
func (s *ReaderService) GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]entity.QuoteHistory, error) {
	return s.snapshotRepo.GetHistory(ctx, symbol, from, to)
}

// GetLatestNews returns the most recent articles, optionally filtered by
// category.
func (s *ReaderService) GetLatestNews(ctx context.Context, category entity.NewsCategory, limit int) ([]entity.NewsArticle, error) {
	key := common.CacheKeyLatestNews
	if category != "" {
		key = fmt.Sprintf(common.CacheKeyNewsByCategory, category)
	}

	if payload, err := s.cacheRepo.Get(ctx, key); err == nil {
		var articles []entity.NewsArticle
		if err := json.Unmarshal(payload, &articles); err == nil {
			if limit > 0 && len(articles) > limit {
				articles = articles[:limit]
			}
			return articles, nil
		}
		s.log.Warn("Discarding undecodable cache payload", logger.StringField("key", key))
	}

	return s.newsRepo.FindLatest(ctx, category, limit)
}
