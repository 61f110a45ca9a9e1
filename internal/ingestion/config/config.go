package config

import (
	"time"

	"golang-etf-dashboard/pkg/config"
)

// Pipeline holds tuning for the market-data ingestion cycle.
type Pipeline struct {
	BatchSize            int           `mapstructure:"batch_size"`
	BatchDelay           time.Duration `mapstructure:"batch_delay"`
	HistoryRetentionDays int           `mapstructure:"history_retention_days"`
	MarketCron           string        `mapstructure:"market_cron"`
	NewsCron             string        `mapstructure:"news_cron"`
}

// Finnhub holds the configuration for the primary quote provider.
type Finnhub struct {
	BaseURL             string   `mapstructure:"base_url"`
	APIKeys             []string `mapstructure:"api_keys"`
	MaxRequestPerMinute int      `mapstructure:"max_request_per_minute"`
}

// YahooFinance holds the configuration for the secondary quote provider.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Marketaux holds the configuration for the targeted/company news feed.
type Marketaux struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// News holds tuning for the news ingestion cycle.
type News struct {
	RSSFeedURL         string    `mapstructure:"rss_feed_url"`
	Marketaux          Marketaux `mapstructure:"marketaux"`
	MaxPerFeed         int       `mapstructure:"max_per_feed"`
	RecentWindowDays   int       `mapstructure:"recent_window_days"`
	DedupThreshold     float64   `mapstructure:"dedup_threshold"`
	AnnotateBatchLimit int       `mapstructure:"annotate_batch_limit"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

// AI holds configuration for AI providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the cycle-summary notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the ingestion service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	Pipeline     Pipeline        `mapstructure:"pipeline"`
	Finnhub      Finnhub         `mapstructure:"finnhub"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	News         News            `mapstructure:"news"`
	Gemini       Gemini          `mapstructure:"gemini"`
	AI           AI              `mapstructure:"ai"`
	Telegram     Telegram        `mapstructure:"telegram"`
}

// Load loads the ingestion configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 5
	}
	if c.Pipeline.BatchDelay <= 0 {
		c.Pipeline.BatchDelay = time.Second
	}
	if c.Pipeline.HistoryRetentionDays <= 0 {
		c.Pipeline.HistoryRetentionDays = 90
	}
	if c.News.RecentWindowDays <= 0 {
		c.News.RecentWindowDays = 7
	}
	if c.News.DedupThreshold <= 0 {
		c.News.DedupThreshold = 0.7
	}
	if c.News.AnnotateBatchLimit <= 0 {
		c.News.AnnotateBatchLimit = 20
	}
	// A zero rate would divide by zero when the limiters are built.
	if c.Finnhub.MaxRequestPerMinute <= 0 {
		c.Finnhub.MaxRequestPerMinute = 60
	}
	if c.YahooFinance.MaxRequestPerMinute <= 0 {
		c.YahooFinance.MaxRequestPerMinute = 30
	}
	if c.News.Marketaux.MaxRequestPerMinute <= 0 {
		c.News.Marketaux.MaxRequestPerMinute = 10
	}
	if c.Gemini.MaxRequestPerMinute <= 0 {
		c.Gemini.MaxRequestPerMinute = 10
	}
	if c.Gemini.RequestTimeout <= 0 {
		c.Gemini.RequestTimeout = 90 * time.Second
	}
}
