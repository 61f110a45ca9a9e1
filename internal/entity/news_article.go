package entity

import (
	"time"

	"github.com/lib/pq"
)

// NewsCategory classifies an article for the dashboard's news tabs.
type NewsCategory string

const (
	NewsCategoryMacro     NewsCategory = "macro"
	NewsCategoryMicro     NewsCategory = "micro"
	NewsCategoryMarket    NewsCategory = "market"
	NewsCategoryCommodity NewsCategory = "commodity"
)

// ImpactDirection is the annotator's verdict for one affected ETF.
type ImpactDirection string

const (
	ImpactPositive ImpactDirection = "positive"
	ImpactNegative ImpactDirection = "negative"
	ImpactMixed    ImpactDirection = "mixed"
)

// NewsArticle represents an ingested news article. Category is set on
// ingestion; ImpactedETFs and ImpactSummary are populated later by the
// decoupled annotation pass and may be absent.
type NewsArticle struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Summary       string         `json:"summary"`
	Source        string         `json:"source"`
	URL           string         `gorm:"unique;not null" json:"url"`
	PublishedAt   time.Time      `gorm:"not null" json:"published_at"`
	Category      NewsCategory   `gorm:"not null;default:market" json:"category"`
	ImpactSummary string         `json:"impact_summary"`
	KeyTopics     pq.StringArray `gorm:"column:key_topics;type:text[]" json:"key_topics"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	ImpactedETFs  []ImpactedETF  `gorm:"foreignKey:ArticleID" json:"impacted_etfs"`
}

// TableName specifies the table name for the NewsArticle model.
func (NewsArticle) TableName() string {
	return "news_articles"
}

// ImpactedETF links an article to one affected ETF with a directional
// impact. Position preserves the annotator's ordering.
type ImpactedETF struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ArticleID uint            `gorm:"not null;index" json:"article_id"`
	Symbol    string          `gorm:"not null" json:"symbol"`
	Impact    ImpactDirection `gorm:"not null" json:"impact"`
	Reason    string          `json:"reason"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the ImpactedETF model.
func (ImpactedETF) TableName() string {
	return "news_impacted_etfs"
}
