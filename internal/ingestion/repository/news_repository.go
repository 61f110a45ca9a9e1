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

// NewsRepository defines the interface for persisted news articles.
type NewsRepository interface {
	CreateIgnoreConflict(ctx context.Context, article *entity.NewsArticle) (bool, error)
	FindSince(ctx context.Context, since time.Time) ([]entity.NewsArticle, error)
	DeleteByID(ctx context.Context, id uint) error
	FindPendingAnnotation(ctx context.Context, limit int) ([]entity.NewsArticle, error)
	SetImpact(ctx context.Context, articleID uint, result *dto.ImpactAnalysisResult) error
	FindLatest(ctx context.Context, category entity.NewsCategory, limit int) ([]entity.NewsArticle, error)
}

type newsRepository struct {
	db *gorm.DB
}

// NewNewsRepository creates a new instance of NewsRepository.
func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

// CreateIgnoreConflict inserts the article, silently skipping URLs that are
// already persisted. It reports whether a row was actually written.
func (r *newsRepository) CreateIgnoreConflict(ctx context.Context, article *entity.NewsArticle) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Omit("ImpactedETFs").Create(article)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// FindSince returns articles published at or after the given time. Used as
// the cross-cycle dedup window.
func (r *newsRepository) FindSince(ctx context.Context, since time.Time) ([]entity.NewsArticle, error) {
	var articles []entity.NewsArticle
	err := r.db.WithContext(ctx).
		Where("published_at >= ?", since).
		Order("published_at desc").
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// DeleteByID retracts a persisted article that lost a dedup tie-break,
// along with its impacted-ETF rows.
func (r *newsRepository) DeleteByID(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&entity.ImpactedETF{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.NewsArticle{}, id).Error
	})
}

// FindPendingAnnotation returns articles that have no impact metadata yet,
// oldest first, bounded for one backfill pass.
func (r *newsRepository) FindPendingAnnotation(ctx context.Context, limit int) ([]entity.NewsArticle, error) {
	var articles []entity.NewsArticle
	err := r.db.WithContext(ctx).
		Where("impact_summary = ''").
		Where("NOT EXISTS (SELECT 1 FROM news_impacted_etfs WHERE news_impacted_etfs.article_id = news_articles.id)").
		Order("published_at asc").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// SetImpact stores the annotation result for an article.
func (r *newsRepository) SetImpact(ctx context.Context, articleID uint, result *dto.ImpactAnalysisResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.NewsArticle{}).
			Where("id = ?", articleID).
			Update("impact_summary", result.ImpactSummary).Error; err != nil {
			return err
		}

		if len(result.ImpactedETFs) == 0 {
			return nil
		}

		mentions := make([]entity.ImpactedETF, 0, len(result.ImpactedETFs))
		for i, m := range result.ImpactedETFs {
			mentions = append(mentions, entity.ImpactedETF{
				ArticleID: articleID,
				Symbol:    m.Symbol,
				Impact:    entity.ImpactDirection(m.Impact),
				Reason:    m.Reason,
				Position:  i,
			})
		}
		if err := tx.Create(&mentions).Error; err != nil {
			return fmt.Errorf("insert news_impacted_etfs error: %w", err)
		}
		return nil
	})
}

// FindLatest returns the most recent articles, optionally filtered by
// category, with their impacted-ETF rows preloaded in annotator order.
func (r *newsRepository) FindLatest(ctx context.Context, category entity.NewsCategory, limit int) ([]entity.NewsArticle, error) {
	query := r.db.WithContext(ctx).
		Preload("ImpactedETFs", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Order("published_at desc").
		Limit(limit)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var articles []entity.NewsArticle
	if err := query.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}
