package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-etf-dashboard/internal/entity"
	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/dto"
	"golang-etf-dashboard/internal/ingestion/repository"
	"golang-etf-dashboard/pkg/logger"
	"golang-etf-dashboard/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubNewsFeed struct {
	name  string
	items []dto.RawNewsItem
	err   error
}

func (s *stubNewsFeed) Name() string { return s.name }

func (s *stubNewsFeed) FetchArticles(context.Context) ([]dto.RawNewsItem, error) {
	return s.items, s.err
}

type stubAnnotator struct {
	result *dto.ImpactAnalysisResult
	err    error
	calls  int
}

func (s *stubAnnotator) Analyze(_ context.Context, _, _ string, _ []string) (*dto.ImpactAnalysisResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type newsServiceFixture struct {
	svc       *NewsService
	newsRepo  repository.NewsRepository
	db        *gorm.DB
	feedA     *stubNewsFeed
	feedB     *stubNewsFeed
	annotator *stubAnnotator
}

func newNewsServiceFixture(t *testing.T) *newsServiceFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entity.Symbol{}))

	// The key_topics postgres array type has no sqlite equivalent
	// AutoMigrate can produce, so the news tables are created by hand.
	require.NoError(t, db.Exec(`CREATE TABLE news_articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		summary TEXT,
		source TEXT,
		url TEXT NOT NULL UNIQUE,
		published_at DATETIME NOT NULL,
		category TEXT NOT NULL DEFAULT 'market',
		impact_summary TEXT NOT NULL DEFAULT '',
		key_topics TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE news_impacted_etfs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		impact TEXT NOT NULL,
		reason TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME
	)`).Error)

	cfg := &config.Config{}
	cfg.News.RecentWindowDays = 7
	cfg.News.DedupThreshold = 0.7
	cfg.News.AnnotateBatchLimit = 20

	feedA := &stubNewsFeed{name: "feed_a"}
	feedB := &stubNewsFeed{name: "feed_b"}
	annotator := &stubAnnotator{err: errors.New("annotator unavailable")}

	newsRepo := repository.NewNewsRepository(db)
	svc := NewNewsService(cfg, logger.NewNop(),
		[]repository.NewsFeedRepository{feedA, feedB},
		newsRepo, newMemoryCache(), repository.NewSymbolsRepository(db),
		annotator, NewNewsDeduper(cfg.News.DedupThreshold), telegram.NopNotifier{})

	return &newsServiceFixture{
		svc:       svc,
		newsRepo:  newsRepo,
		db:        db,
		feedA:     feedA,
		feedB:     feedB,
		annotator: annotator,
	}
}

func (fx *newsServiceFixture) articleCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, fx.db.Model(&entity.NewsArticle{}).Count(&count).Error)
	return count
}

func feedItem(title, url string, publishedAt time.Time) dto.RawNewsItem {
	return dto.RawNewsItem{
		Title:       title,
		Summary:     "Markets react to the news.",
		Source:      "example.com",
		URL:         url,
		PublishedAt: publishedAt,
	}
}

func TestRunNewsCycleSameStoryFromTwoFeedsPersistsOnce(t *testing.T) {
	fx := newNewsServiceFixture(t)
	ctx := context.Background()
	publishedAt := time.Now().UTC().Add(-2 * time.Hour)

	item := feedItem("Fed Cuts Rates Amid Inflation Data", "https://example.com/fed-cut", publishedAt)
	fx.feedA.items = []dto.RawNewsItem{item}
	fx.feedB.items = []dto.RawNewsItem{item}

	result, err := fx.svc.RunNewsCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Collected)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, int64(1), fx.articleCount(t))

	// A rerun sees the persisted row through the recent window and drops
	// both feed copies on the URL match.
	result, err = fx.svc.RunNewsCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Accepted)
	assert.Equal(t, 2, result.Duplicates)
	assert.Equal(t, int64(1), fx.articleCount(t))
}

func TestRunNewsCycleRetractsDisplacedPersistedArticle(t *testing.T) {
	fx := newNewsServiceFixture(t)
	ctx := context.Background()
	earlier := time.Now().UTC().Add(-6 * time.Hour)

	fx.feedA.items = []dto.RawNewsItem{
		feedItem("Fed Cuts Rates Amid Inflation Data", "https://example.com/fed-early", earlier),
	}
	_, err := fx.svc.RunNewsCycle(ctx)
	require.NoError(t, err)

	var stored entity.NewsArticle
	require.NoError(t, fx.db.Where("url = ?", "https://example.com/fed-early").First(&stored).Error)
	require.NoError(t, fx.newsRepo.SetImpact(ctx, stored.ID, &dto.ImpactAnalysisResult{
		ImpactSummary: "supportive for bond ETFs",
		ImpactedETFs:  []dto.ImpactedETFMention{{Symbol: "AGG", Impact: "positive", Reason: "lower yields"}},
	}))

	// The later-published rephrasing of the same story displaces the
	// persisted article and its impact rows.
	fx.feedA.items = []dto.RawNewsItem{
		feedItem("Federal Reserve Cuts Interest Rates on Inflation", "https://example.com/fed-late", earlier.Add(2*time.Hour)),
	}
	result, err := fx.svc.RunNewsCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Retracted)
	assert.Equal(t, 1, result.Accepted)

	assert.Equal(t, int64(1), fx.articleCount(t))
	var survivor entity.NewsArticle
	require.NoError(t, fx.db.First(&survivor).Error)
	assert.Equal(t, "https://example.com/fed-late", survivor.URL)

	var impactedCount int64
	require.NoError(t, fx.db.Model(&entity.ImpactedETF{}).
		Where("article_id = ?", stored.ID).Count(&impactedCount).Error)
	assert.Equal(t, int64(0), impactedCount, "retraction must take the impacted-ETF rows with it")
}

func TestAnnotatePendingBackfillsAfterFailure(t *testing.T) {
	fx := newNewsServiceFixture(t)
	ctx := context.Background()

	spy := entity.Symbol{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF, Origin: entity.SymbolOriginCurated}
	require.NoError(t, fx.db.Create(&spy).Error)

	fx.feedA.items = []dto.RawNewsItem{
		feedItem("Fed Cuts Rates Amid Inflation Data", "https://example.com/fed-cut", time.Now().UTC().Add(-time.Hour)),
	}

	// The annotator is down during the cycle: the article persists
	// unannotated and stays eligible.
	result, err := fx.svc.RunNewsCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 0, result.Annotated)
	assert.Equal(t, 1, fx.annotator.calls)

	pending, err := fx.newsRepo.FindPendingAnnotation(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Next backfill pass with the annotator recovered.
	fx.annotator.err = nil
	fx.annotator.result = &dto.ImpactAnalysisResult{
		ImpactSummary: "risk-on for broad equity funds",
		ImpactedETFs:  []dto.ImpactedETFMention{{Symbol: "SPY", Impact: "positive", Reason: "lower discount rates"}},
	}
	assert.Equal(t, 1, fx.svc.AnnotatePending(ctx))

	pending, err = fx.newsRepo.FindPendingAnnotation(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	latest, err := fx.newsRepo.FindLatest(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "risk-on for broad equity funds", latest[0].ImpactSummary)
	require.Len(t, latest[0].ImpactedETFs, 1)
	assert.Equal(t, "SPY", latest[0].ImpactedETFs[0].Symbol)
	assert.Equal(t, entity.ImpactPositive, latest[0].ImpactedETFs[0].Impact)
}
