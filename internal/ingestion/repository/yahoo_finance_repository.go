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

const yahooFinanceSource = "yahoo_finance"

// YahooFinanceRepository is the secondary, credential-free quote provider.
type YahooFinanceRepository interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates a new instance of YahooFinanceRepository.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: requestLimiter,
	}
}

// GetQuote fetches the chart meta block for one symbol. A zero price maps
// to a nil quote ("no data", not an error).
func (r *yahooFinanceRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
		r.cfg.YahooFinance.BaseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to Yahoo Finance API",
			logger.ErrorField(err), logger.StringField("symbol", symbol))
		return nil, fmt.Errorf("failed to fetch yahoo quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.ErrorContext(ctx, "Received non-OK response from Yahoo Finance API",
			logger.IntField("status_code", resp.StatusCode), logger.StringField("symbol", symbol))
		return nil, fmt.Errorf("yahoo chart returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read yahoo response body: %w", err)
	}

	var chartResp dto.YahooChartResponse
	if err := json.Unmarshal(body, &chartResp); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo response: %w", err)
	}

	if chartResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", chartResp.Chart.Error.Description)
	}
	if len(chartResp.Chart.Result) == 0 {
		return nil, nil
	}

	meta := chartResp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, nil
	}

	previousClose := meta.PreviousClose
	if previousClose == 0 {
		previousClose = meta.ChartPreviousClose
	}

	quote := &dto.Quote{
		Symbol:         symbol,
		Price:          meta.RegularMarketPrice,
		PreviousClose:  previousClose,
		High:           meta.RegularMarketDayHigh,
		Low:            meta.RegularMarketDayLow,
		Volume:         meta.RegularMarketVolume,
		ProviderSource: yahooFinanceSource,
		ObservedAt:     time.Now(),
	}
	if meta.RegularMarketTime > 0 {
		quote.ObservedAt = time.Unix(meta.RegularMarketTime, 0)
	}
	if previousClose > 0 {
		quote.Change = quote.Price - previousClose
		quote.ChangePercent = quote.Change / previousClose * 100
	}

	return quote, nil
}
