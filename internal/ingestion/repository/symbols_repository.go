package repository

import (
	"context"

	"golang-etf-dashboard/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SymbolsRepository defines the interface for the tracked symbol universe.
type SymbolsRepository interface {
	GetUniverse(ctx context.Context) ([]entity.Symbol, error)
	AddUserSearched(ctx context.Context, symbol *entity.Symbol) error
}

type symbolsRepository struct {
	db *gorm.DB
}

// NewSymbolsRepository creates a new instance of SymbolsRepository.
func NewSymbolsRepository(db *gorm.DB) SymbolsRepository {
	return &symbolsRepository{db: db}
}

// GetUniverse returns every tracked symbol, curated and user-searched,
// ordered by ticker. The unique ticker constraint keeps the set deduplicated.
func (r *symbolsRepository) GetUniverse(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).Order("ticker asc").Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// AddUserSearched registers a user-searched symbol, ignoring tickers that
// are already tracked.
func (r *symbolsRepository) AddUserSearched(ctx context.Context, symbol *entity.Symbol) error {
	symbol.Origin = entity.SymbolOriginUserSearched
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}},
		DoNothing: true,
	}).Create(symbol).Error
}
