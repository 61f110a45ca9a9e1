package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/dto"
	"golang-etf-dashboard/pkg/logger"
	"golang-etf-dashboard/pkg/utils"

	"golang.org/x/time/rate"
)

// marketauxRepository pulls the targeted/company news feed for the symbols
// the fetcher is tracking.
type marketauxRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	symbols        func(ctx context.Context) ([]string, error)
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewMarketauxRepository creates the targeted news feed repository. symbols
// supplies the tickers to query for, so the feed follows the same universe
// as the quote pipeline.
func NewMarketauxRepository(cfg *config.Config, log *logger.Logger, symbols func(ctx context.Context) ([]string, error)) NewsFeedRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.News.Marketaux.MaxRequestPerMinute)
	return &marketauxRepository{
		cfg:     cfg,
		log:     log,
		symbols: symbols,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *marketauxRepository) Name() string {
	return "marketaux"
}

// FetchArticles queries the feed for the tracked tickers and normalizes the
// response. Published timestamps arrive as either ISO strings or epoch
// seconds depending on the endpoint version.
func (r *marketauxRepository) FetchArticles(ctx context.Context) ([]dto.RawNewsItem, error) {
	tickers, err := r.symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tracked symbols: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/news/all?symbols=%s&filter_entities=true&limit=%d&api_token=%s",
		r.cfg.News.Marketaux.BaseURL,
		url.QueryEscape(strings.Join(tickers, ",")),
		r.cfg.News.MaxPerFeed,
		url.QueryEscape(r.cfg.News.Marketaux.APIKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create marketaux request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch marketaux news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketaux returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read marketaux response body: %w", err)
	}

	var newsResp dto.MarketauxNewsResponse
	if err := json.Unmarshal(body, &newsResp); err != nil {
		return nil, fmt.Errorf("failed to decode marketaux response: %w", err)
	}

	items := make([]dto.RawNewsItem, 0, len(newsResp.Data))
	for _, article := range newsResp.Data {
		publishedAt, ok := normalizePublishedAt(article.PublishedAt, article.PublishedEpoch)
		if !ok {
			r.log.Debug("Skipping article with unparseable timestamp",
				logger.StringField("url", article.URL),
				logger.StringField("published_at", article.PublishedAt))
			continue
		}

		items = append(items, dto.RawNewsItem{
			Title:       utils.CleanToValidUTF8(strings.TrimSpace(article.Title)),
			Summary:     utils.CleanToValidUTF8(strings.TrimSpace(article.Description)),
			Source:      article.Source,
			URL:         strings.TrimSpace(article.URL),
			PublishedAt: publishedAt,
			Category:    strings.ToLower(article.Category),
		})
	}

	return items, nil
}

// normalizePublishedAt accepts an ISO-8601 string or epoch seconds.
func normalizePublishedAt(iso string, epoch int64) (time.Time, bool) {
	if iso != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000000Z", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, iso); err == nil {
				return t, true
			}
		}
	}
	if epoch > 0 {
		return time.Unix(epoch, 0), true
	}
	return time.Time{}, false
}
