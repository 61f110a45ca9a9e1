package repository

import (
	"context"
	"testing"

	"golang-etf-dashboard/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUniverseOrderedByTicker(t *testing.T) {
	db := newTestDB(t)
	repo := NewSymbolsRepository(db)
	ctx := context.Background()

	for _, symbol := range []entity.Symbol{
		{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF, Origin: entity.SymbolOriginCurated},
		{Ticker: "GLD", Name: "SPDR Gold Shares", AssetClass: entity.AssetClassCommodity, Origin: entity.SymbolOriginCurated},
		{Ticker: "QQQ", Name: "Invesco QQQ", AssetClass: entity.AssetClassETF, Origin: entity.SymbolOriginCurated},
	} {
		symbol := symbol
		require.NoError(t, db.Create(&symbol).Error)
	}

	universe, err := repo.GetUniverse(ctx)
	require.NoError(t, err)
	require.Len(t, universe, 3)
	assert.Equal(t, "GLD", universe[0].Ticker)
	assert.Equal(t, "QQQ", universe[1].Ticker)
	assert.Equal(t, "SPY", universe[2].Ticker)
}

func TestAddUserSearchedDeduplicatesByTicker(t *testing.T) {
	db := newTestDB(t)
	repo := NewSymbolsRepository(db)
	ctx := context.Background()

	curated := entity.Symbol{Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF, Origin: entity.SymbolOriginCurated}
	require.NoError(t, db.Create(&curated).Error)

	// Re-adding a tracked ticker is a no-op and must not downgrade origin.
	require.NoError(t, repo.AddUserSearched(ctx, &entity.Symbol{
		Ticker: "SPY", Name: "SPDR S&P 500", AssetClass: entity.AssetClassETF,
	}))
	require.NoError(t, repo.AddUserSearched(ctx, &entity.Symbol{
		Ticker: "ARKK", Name: "ARK Innovation", AssetClass: entity.AssetClassETF,
	}))

	universe, err := repo.GetUniverse(ctx)
	require.NoError(t, err)
	require.Len(t, universe, 2)
	assert.Equal(t, entity.SymbolOriginUserSearched, universe[0].Origin)
	assert.Equal(t, "ARKK", universe[0].Ticker)
	assert.Equal(t, entity.SymbolOriginCurated, universe[1].Origin)
}
