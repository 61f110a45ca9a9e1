package repository

import (
	"context"
	"fmt"
	"time"

	"golang-etf-dashboard/internal/entity"
	"golang-etf-dashboard/internal/ingestion/dto"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository defines the interface for the snapshot and history
// store. Snapshots are one mutable row per symbol; history is append-only
// and purged past the retention cutoff.
type SnapshotRepository interface {
	UpsertSnapshot(ctx context.Context, assetClass entity.AssetClass, quote *dto.Quote) error
	AppendHistory(ctx context.Context, symbol string, price float64, volume int64, recordedAt time.Time) error
	PurgeHistoryOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	GetSnapshot(ctx context.Context, symbol string) (*entity.MarketSnapshot, error)
	ListByAssetClass(ctx context.Context, class entity.AssetClass) ([]entity.MarketSnapshot, error)
	GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]entity.QuoteHistory, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new instance of SnapshotRepository.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// UpsertSnapshot merges the quote into the symbol's snapshot row, creating
// it if absent. Fields the provider did not supply (zero high/low/open and
// volume) retain their prior values.
func (r *snapshotRepository) UpsertSnapshot(ctx context.Context, assetClass entity.AssetClass, quote *dto.Quote) error {
	if !quote.Usable() {
		return fmt.Errorf("refusing to upsert snapshot for %s: price %.4f is not usable", quote.Symbol, quote.Price)
	}

	snapshot := entity.MarketSnapshot{
		Symbol:         quote.Symbol,
		AssetClass:     assetClass,
		Price:          quote.Price,
		PreviousClose:  quote.PreviousClose,
		Change:         quote.Change,
		ChangePercent:  quote.ChangePercent,
		High:           quote.High,
		Low:            quote.Low,
		Open:           quote.Open,
		Volume:         quote.Volume,
		ProviderSource: quote.ProviderSource,
		ObservedAt:     quote.ObservedAt,
	}

	assignments := map[string]interface{}{
		"price":           quote.Price,
		"previous_close":  quote.PreviousClose,
		"change":          quote.Change,
		"change_percent":  quote.ChangePercent,
		"provider_source": quote.ProviderSource,
		"observed_at":     quote.ObservedAt,
		"updated_at":      time.Now(),
	}
	if quote.High > 0 {
		assignments["high"] = quote.High
	}
	if quote.Low > 0 {
		assignments["low"] = quote.Low
	}
	if quote.Open > 0 {
		assignments["open"] = quote.Open
	}
	if quote.Volume > 0 {
		assignments["volume"] = quote.Volume
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&snapshot).Error
}

// AppendHistory inserts a new history record. Existing records are never
// mutated.
func (r *snapshotRepository) AppendHistory(ctx context.Context, symbol string, price float64, volume int64, recordedAt time.Time) error {
	record := entity.QuoteHistory{
		Symbol:     symbol,
		Price:      price,
		Volume:     volume,
		RecordedAt: recordedAt,
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

// PurgeHistoryOlderThan deletes every history record with recorded_at
// strictly before the cutoff, as one range delete. Records at the cutoff
// are retained.
func (r *snapshotRepository) PurgeHistoryOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&entity.QuoteHistory{})
	return result.RowsAffected, result.Error
}

// GetSnapshot returns the current snapshot for a symbol, or nil when the
// symbol has never been fetched.
func (r *snapshotRepository) GetSnapshot(ctx context.Context, symbol string) (*entity.MarketSnapshot, error) {
	var snapshot entity.MarketSnapshot
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&snapshot).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListByAssetClass returns snapshots of one asset class sorted by symbol
// ascending for deterministic reads.
func (r *snapshotRepository) ListByAssetClass(ctx context.Context, class entity.AssetClass) ([]entity.MarketSnapshot, error) {
	var snapshots []entity.MarketSnapshot
	err := r.db.WithContext(ctx).
		Where("asset_class = ?", class).
		Order("symbol asc").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// GetHistory returns the history records of a symbol within [from, to],
// sorted by recorded_at ascending.
func (r *snapshotRepository) GetHistory(ctx context.Context, symbol string, from, to time.Time) ([]entity.QuoteHistory, error) {
	var records []entity.QuoteHistory
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND recorded_at >= ? AND recorded_at <= ?", symbol, from, to).
		Order("recorded_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
