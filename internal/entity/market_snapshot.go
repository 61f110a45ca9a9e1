package entity

import (
	"time"
)

// MarketSnapshot is the current quote per symbol, overwritten on every
// successful fetch via a field-merge upsert. One row per symbol.
type MarketSnapshot struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Symbol         string     `gorm:"unique;not null" json:"symbol"`
	AssetClass     AssetClass `gorm:"not null" json:"asset_class"`
	Price          float64    `gorm:"not null" json:"price"`
	PreviousClose  float64    `json:"previous_close"`
	Change         float64    `json:"change"`
	ChangePercent  float64    `json:"change_percent"`
	High           float64    `json:"high"`
	Low            float64    `json:"low"`
	Open           float64    `json:"open"`
	Volume         int64      `json:"volume"`
	ProviderSource string     `json:"provider_source"`
	ObservedAt     time.Time  `json:"observed_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the MarketSnapshot model.
func (MarketSnapshot) TableName() string {
	return "market_snapshots"
}

// QuoteHistory is the append-only price series, one record per symbol per
// completed fetch cycle, purged past the retention window.
type QuoteHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Symbol     string    `gorm:"not null;index:idx_quote_history_symbol_recorded" json:"symbol"`
	Price      float64   `gorm:"not null" json:"price"`
	Volume     int64     `json:"volume"`
	RecordedAt time.Time `gorm:"not null;index:idx_quote_history_symbol_recorded" json:"recorded_at"`
}

// TableName specifies the table name for the QuoteHistory model.
func (QuoteHistory) TableName() string {
	return "quote_history"
}
