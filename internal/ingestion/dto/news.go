package dto

import "time"

// RawNewsItem is a feed article after normalization, before relevance
// filtering and dedup.
type RawNewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	// Category is only set when the feed itself supplies one.
	Category string `json:"category,omitempty"`
}

// MarketauxNewsResponse mirrors the article list of the targeted news feed.
type MarketauxNewsResponse struct {
	Data []MarketauxArticle `json:"data"`
}

// MarketauxArticle is one raw article from the targeted feed. PublishedAt
// arrives either as an ISO string or as epoch seconds depending on the
// endpoint version.
type MarketauxArticle struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	URL            string `json:"url"`
	Source         string `json:"source"`
	PublishedAt    string `json:"published_at"`
	PublishedEpoch int64  `json:"published_on"`
	Category       string `json:"category"`
}
