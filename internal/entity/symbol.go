package entity

import (
	"time"
)

// AssetClass partitions the symbol universe.
type AssetClass string

const (
	AssetClassETF       AssetClass = "ETF"
	AssetClassCommodity AssetClass = "COMMODITY"
)

// SymbolOrigin records how a symbol entered the universe. The curated list
// is static; user-searched symbols accumulate over time, deduplicated by
// ticker.
type SymbolOrigin string

const (
	SymbolOriginCurated      SymbolOrigin = "curated"
	SymbolOriginUserSearched SymbolOrigin = "user_searched"
)

// Symbol is a tradable instrument tracked by the pipeline.
type Symbol struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Ticker     string       `gorm:"unique;not null" json:"ticker"`
	Name       string       `gorm:"not null" json:"name"`
	AssetClass AssetClass   `gorm:"not null" json:"asset_class"`
	Origin     SymbolOrigin `gorm:"not null;default:curated" json:"origin"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Symbol model.
func (Symbol) TableName() string {
	return "symbols"
}
