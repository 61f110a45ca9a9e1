package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-etf-dashboard/internal/entity"
	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/repository"
	"golang-etf-dashboard/pkg/common"
	"golang-etf-dashboard/pkg/logger"
	"golang-etf-dashboard/pkg/telegram"
	"golang-etf-dashboard/pkg/utils"
)

// NewsCycleResult summarizes one completed news ingestion cycle.
type NewsCycleResult struct {
	Collected  int           `json:"collected"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Retracted  int           `json:"retracted"`
	Annotated  int           `json:"annotated"`
	Duration   time.Duration `json:"duration"`
}

// NewsService drives the news pipeline: multi-feed collection, relevance
// filtering, categorization, dedup, persistence, and deferred impact
// annotation.
type NewsService struct {
	cfg         *config.Config
	log         *logger.Logger
	feeds       []repository.NewsFeedRepository
	newsRepo    repository.NewsRepository
	cacheRepo   repository.CacheRepository
	symbolsRepo repository.SymbolsRepository
	annotator   repository.NewsAnnotatorRepository
	deduper     *NewsDeduper
	notifier    telegram.Notifier
}

// NewNewsService creates a new NewsService.
func NewNewsService(
	cfg *config.Config,
	log *logger.Logger,
	feeds []repository.NewsFeedRepository,
	newsRepo repository.NewsRepository,
	cacheRepo repository.CacheRepository,
	symbolsRepo repository.SymbolsRepository,
	annotator repository.NewsAnnotatorRepository,
	deduper *NewsDeduper,
	notifier telegram.Notifier,
) *NewsService {
	return &NewsService{
		cfg:         cfg,
		log:         log,
		feeds:       feeds,
		newsRepo:    newsRepo,
		cacheRepo:   cacheRepo,
		symbolsRepo: symbolsRepo,
		annotator:   annotator,
		deduper:     deduper,
		notifier:    notifier,
	}
}

// Collect pulls all configured feeds and normalizes, filters, and
// categorizes their articles. A failing feed is logged and skipped; the
// remaining feeds still contribute.
func (s *NewsService) Collect(ctx context.Context) ([]*entity.NewsArticle, int) {
	var (
		articles    []*entity.NewsArticle
		failedFeeds int
	)
	for _, feed := range s.feeds {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		items, err := feed.FetchArticles(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to fetch news feed",
				logger.ErrorField(err), logger.StringField("feed", feed.Name()))
			failedFeeds++
			continue
		}

		kept := 0
		for _, item := range items {
			if item.Title == "" || item.URL == "" {
				continue
			}
			if !IsFinanceRelevant(item.Title, item.Summary) {
				continue
			}
			articles = append(articles, &entity.NewsArticle{
				Title:       item.Title,
				Summary:     item.Summary,
				Source:      item.Source,
				URL:         item.URL,
				PublishedAt: item.PublishedAt,
				Category:    Categorize(item.Category, item.Title, item.Summary),
				KeyTopics:   MatchedFinanceTopics(item.Title, item.Summary),
			})
			kept++
		}
		s.log.InfoContext(ctx, "Collected news feed",
			logger.StringField("feed", feed.Name()),
			logger.IntField("raw", len(items)),
			logger.IntField("kept", kept),
		)
	}
	return articles, failedFeeds
}

// RunNewsCycle executes one bounded news ingestion pass.
func (s *NewsService) RunNewsCycle(ctx context.Context) (NewsCycleResult, error) {
	start := time.Now()

	candidates, failedFeeds := s.Collect(ctx)
	result := NewsCycleResult{Collected: len(candidates)}

	since := time.Now().AddDate(0, 0, -s.cfg.News.RecentWindowDays)
	persisted, err := s.newsRepo.FindSince(ctx, since)
	if err != nil {
		return result, fmt.Errorf("failed to load recent articles: %w", err)
	}

	accepted := make([]*entity.NewsArticle, 0, len(persisted)+len(candidates))
	for i := range persisted {
		accepted = append(accepted, &persisted[i])
	}

	var fresh []*entity.NewsArticle
	for _, candidate := range candidates {
		decision := s.deduper.Admit(candidate, accepted)
		if !decision.Keep {
			result.Duplicates++
			continue
		}
		for _, loser := range decision.Losers {
			accepted = removeArticle(accepted, loser)
			fresh = removeArticle(fresh, loser)
			if loser.ID > 0 {
				if err := s.newsRepo.DeleteByID(ctx, loser.ID); err != nil {
					s.log.ErrorContext(ctx, "Failed to retract displaced article",
						logger.ErrorField(err), logger.StringField("url", loser.URL))
					continue
				}
			}
			result.Retracted++
		}
		accepted = append(accepted, candidate)
		fresh = append(fresh, candidate)
	}

	for _, article := range fresh {
		inserted, err := s.newsRepo.CreateIgnoreConflict(ctx, article)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to persist article",
				logger.ErrorField(err), logger.StringField("url", article.URL))
			continue
		}
		if !inserted {
			// URL landed in the store between the window load and now,
			// e.g. an overlapping invocation. Expected, not an error.
			result.Duplicates++
			continue
		}
		result.Accepted++
	}

	result.Annotated = s.AnnotatePending(ctx)
	s.refreshNewsCache(ctx)

	result.Duration = time.Since(start)
	s.log.InfoContext(ctx, "News cycle completed",
		logger.IntField("collected", result.Collected),
		logger.IntField("accepted", result.Accepted),
		logger.IntField("duplicates", result.Duplicates),
		logger.IntField("retracted", result.Retracted),
		logger.IntField("annotated", result.Annotated),
		logger.DurationField("duration", result.Duration),
	)

	if failedFeeds > 0 {
		if err := s.notifier.SendMessage(fmt.Sprintf(
			"⚠️ News cycle: %d feed(s) failed, %d articles accepted", failedFeeds, result.Accepted)); err != nil {
			s.log.Warn("Failed to send cycle notification", logger.ErrorField(err))
		}
	}

	return result, nil
}

// AnnotatePending backfills impact metadata for articles that have none,
// covering both this cycle's inserts and older articles whose annotation
// previously failed. Annotation failures leave the article untouched and
// eligible for the next pass.
func (s *NewsService) AnnotatePending(ctx context.Context) int {
	pending, err := s.newsRepo.FindPendingAnnotation(ctx, s.cfg.News.AnnotateBatchLimit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load articles pending annotation", logger.ErrorField(err))
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	candidateSymbols, err := s.etfTickers(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load candidate symbols", logger.ErrorField(err))
		return 0
	}

	annotated := 0
	for _, article := range pending {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		analysis, err := s.annotator.Analyze(ctx, article.Title, article.Summary, candidateSymbols)
		if err != nil {
			s.log.WarnContext(ctx, "Annotation failed, article stays unannotated",
				logger.ErrorField(err), logger.StringField("url", article.URL))
			continue
		}
		if err := s.newsRepo.SetImpact(ctx, article.ID, analysis); err != nil {
			s.log.ErrorContext(ctx, "Failed to store annotation",
				logger.ErrorField(err), logger.StringField("url", article.URL))
			continue
		}
		annotated++
	}
	return annotated
}

func (s *NewsService) etfTickers(ctx context.Context) ([]string, error) {
	universe, err := s.symbolsRepo.GetUniverse(ctx)
	if err != nil {
		return nil, err
	}
	var tickers []string
	for _, symbol := range universe {
		if symbol.AssetClass == entity.AssetClassETF {
			tickers = append(tickers, symbol.Ticker)
		}
	}
	return tickers, nil
}

// refreshNewsCache rewrites the latest-news cache entries.
func (s *NewsService) refreshNewsCache(ctx context.Context) {
	write := func(key string, category entity.NewsCategory) {
		articles, err := s.newsRepo.FindLatest(ctx, category, 50)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to list articles for cache refresh", logger.ErrorField(err))
			return
		}
		payload, err := json.Marshal(articles)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to marshal articles", logger.ErrorField(err))
			return
		}
		if err := s.cacheRepo.Set(ctx, key, payload); err != nil {
			s.log.ErrorContext(ctx, "Failed to refresh news cache",
				logger.ErrorField(err), logger.StringField("key", key))
		}
	}

	write(common.CacheKeyLatestNews, "")
	for _, category := range []entity.NewsCategory{
		entity.NewsCategoryMacro,
		entity.NewsCategoryMicro,
		entity.NewsCategoryMarket,
		entity.NewsCategoryCommodity,
	} {
		write(fmt.Sprintf(common.CacheKeyNewsByCategory, category), category)
	}
}

func removeArticle(articles []*entity.NewsArticle, target *entity.NewsArticle) []*entity.NewsArticle {
	out := articles[:0]
	for _, article := range articles {
		if article != target {
			out = append(out, article)
		}
	}
	return out
}
