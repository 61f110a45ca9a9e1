package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/dto"
	"golang-etf-dashboard/pkg/logger"

	"golang.org/x/time/rate"
)

const finnhubSource = "finnhub"

// FinnhubRepository is the primary quote provider. The credential is
// supplied per call so the fetcher can drive key rotation.
type FinnhubRepository interface {
	GetQuote(ctx context.Context, symbol, apiKey string) (*dto.Quote, error)
}

type finnhubRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewFinnhubRepository creates a new instance of FinnhubRepository.
func NewFinnhubRepository(cfg *config.Config, log *logger.Logger) FinnhubRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Finnhub.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	return &finnhubRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: requestLimiter,
	}
}

// GetQuote fetches the current quote for one symbol. A 429 response maps to
// ErrRateLimited so the caller can rotate credentials; a zero price maps to
// a nil quote ("no data", not an error).
func (r *finnhubRepository) GetQuote(ctx context.Context, symbol, apiKey string) (*dto.Quote, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		r.cfg.Finnhub.BaseURL, url.QueryEscape(symbol), url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create finnhub request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to Finnhub API",
			logger.ErrorField(err), logger.StringField("symbol", symbol))
		return nil, fmt.Errorf("failed to fetch finnhub quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		r.log.ErrorContext(ctx, "Received non-OK response from Finnhub API",
			logger.IntField("status_code", resp.StatusCode), logger.StringField("symbol", symbol))
		return nil, fmt.Errorf("finnhub quote returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read finnhub response body: %w", err)
	}

	var quoteResp dto.FinnhubQuoteResponse
	if err := json.Unmarshal(body, &quoteResp); err != nil {
		return nil, fmt.Errorf("failed to decode finnhub response: %w", err)
	}

	if quoteResp.Current <= 0 {
		return nil, nil
	}

	observedAt := time.Now()
	if quoteResp.Timestamp > 0 {
		observedAt = time.Unix(quoteResp.Timestamp, 0)
	}

	return &dto.Quote{
		Symbol:         symbol,
		Price:          quoteResp.Current,
		PreviousClose:  quoteResp.PreviousClose,
		Change:         quoteResp.Change,
		ChangePercent:  quoteResp.ChangePercent,
		High:           quoteResp.High,
		Low:            quoteResp.Low,
		Open:           quoteResp.Open,
		ProviderSource: finnhubSource,
		ObservedAt:     observedAt,
	}, nil
}
