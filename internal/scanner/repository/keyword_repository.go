package repository

import (
	"context"

	"reddit-lead-scout/internal/entity"

	"gorm.io/gorm"
)

// KeywordRepository defines the interface for keyword rule persistence.
type KeywordRepository interface {
	GetActive(ctx context.Context) ([]entity.Keyword, error)
}

// NewKeywordRepository creates a new GORM-based keyword repository.
func NewKeywordRepository(db *gorm.DB) KeywordRepository {
	return &keywordRepository{db: db}
}

type keywordRepository struct {
	db *gorm.DB
}

// GetActive returns the active keyword rules ordered by weight, heaviest first.
func (r *keywordRepository) GetActive(ctx context.Context) ([]entity.Keyword, error) {
	var keywords []entity.Keyword
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("weight DESC, phrase ASC").
		Find(&keywords).Error
	return keywords, err
}
