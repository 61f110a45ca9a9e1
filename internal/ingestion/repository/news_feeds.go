package repository

import (
	"context"

	"golang-etf-dashboard/internal/ingestion/dto"
)

// NewsFeedRepository is one upstream article feed. The collector pulls from
// at least two independent feeds per cycle.
type NewsFeedRepository interface {
	Name() string
	FetchArticles(ctx context.Context) ([]dto.RawNewsItem, error)
}
