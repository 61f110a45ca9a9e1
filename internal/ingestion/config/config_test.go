package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsFillsEveryTuningKnob(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, 5, cfg.Pipeline.BatchSize)
	assert.Equal(t, time.Second, cfg.Pipeline.BatchDelay)
	assert.Equal(t, 90, cfg.Pipeline.HistoryRetentionDays)
	assert.Equal(t, 7, cfg.News.RecentWindowDays)
	assert.Equal(t, 0.7, cfg.News.DedupThreshold)
	assert.Equal(t, 20, cfg.News.AnnotateBatchLimit)

	// Rate ceilings must never default to zero: the provider limiters
	// compute time.Minute / rate at construction.
	assert.Equal(t, 60, cfg.Finnhub.MaxRequestPerMinute)
	assert.Equal(t, 30, cfg.YahooFinance.MaxRequestPerMinute)
	assert.Equal(t, 10, cfg.News.Marketaux.MaxRequestPerMinute)
	assert.Equal(t, 10, cfg.Gemini.MaxRequestPerMinute)
	assert.Equal(t, 90*time.Second, cfg.Gemini.RequestTimeout)
}

func TestApplyDefaultsKeepsConfiguredValues(t *testing.T) {
	var cfg Config
	cfg.Pipeline.BatchSize = 10
	cfg.Finnhub.MaxRequestPerMinute = 120
	cfg.Gemini.RequestTimeout = 30 * time.Second
	cfg.applyDefaults()

	assert.Equal(t, 10, cfg.Pipeline.BatchSize)
	assert.Equal(t, 120, cfg.Finnhub.MaxRequestPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Gemini.RequestTimeout)
}
