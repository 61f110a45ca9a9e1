package repository

import (
	"bytes"
	"context"
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

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

const summaryMaxLen = 500

// rssNewsRepository pulls the general-headlines RSS feed.
type rssNewsRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	parser     *gofeed.Parser
	httpClient *http.Client
}

// NewRSSNewsRepository creates the general-headlines feed repository.
func NewRSSNewsRepository(cfg *config.Config, log *logger.Logger) NewsFeedRepository {
	return &rssNewsRepository{
		cfg:    cfg,
		log:    log,
		parser: gofeed.NewParser(),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (r *rssNewsRepository) Name() string {
	return "rss_headlines"
}

// FetchArticles parses the feed and normalizes its items. Items missing a
// published date are skipped; items missing a description get a readable
// summary extracted from the article page.
func (r *rssNewsRepository) FetchArticles(ctx context.Context) ([]dto.RawNewsItem, error) {
	feed, err := r.parser.ParseURLWithContext(r.cfg.News.RSSFeedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RawNewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(items) >= r.cfg.News.MaxPerFeed {
			break
		}
		if item.PublishedParsed == nil {
			r.log.Debug("Skipping feed item without published date", logger.StringField("link", item.Link))
			continue
		}

		raw := dto.RawNewsItem{
			Title:       utils.CleanToValidUTF8(strings.TrimSpace(item.Title)),
			Summary:     utils.CleanToValidUTF8(strings.TrimSpace(item.Description)),
			URL:         strings.TrimSpace(item.Link),
			PublishedAt: *item.PublishedParsed,
		}
		if len(item.Categories) > 0 {
			raw.Category = strings.ToLower(item.Categories[0])
		}

		if parsed, err := url.Parse(raw.URL); err == nil {
			raw.Source = parsed.Hostname()
		}

		if raw.Summary == "" && raw.URL != "" {
			summary, err := r.extractReadableSummary(ctx, raw.URL)
			if err != nil {
				r.log.Debug("Failed to extract article summary",
					logger.ErrorField(err), logger.StringField("url", raw.URL))
			} else {
				raw.Summary = summary
			}
		}

		items = append(items, raw)
	}

	return items, nil
}

// extractReadableSummary fetches the article page and reduces it to the
// leading readable text.
func (r *rssNewsRepository) extractReadableSummary(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", err
	}
	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", err
	}

	text := strings.Join(strings.Fields(docHTML.Text()), " ")
	if len(text) > summaryMaxLen {
		text = text[:summaryMaxLen]
	}
	return utils.CleanToValidUTF8(text), nil
}
