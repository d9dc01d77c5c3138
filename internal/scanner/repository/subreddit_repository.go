package repository

import (
	"context"
	"time"

	"reddit-lead-scout/internal/entity"

	"gorm.io/gorm"
)

// SubredditRepository defines the interface for the subreddit registry.
type SubredditRepository interface {
	GetActive(ctx context.Context) ([]entity.Subreddit, error)
	UpdateLastScanned(ctx context.Context, name string, at time.Time) error
}

// NewSubredditRepository creates a new GORM-based subreddit repository.
func NewSubredditRepository(db *gorm.DB) SubredditRepository {
	return &subredditRepository{db: db}
}

type subredditRepository struct {
	db *gorm.DB
}

// GetActive returns the subreddits enabled for scanning.
func (r *subredditRepository) GetActive(ctx context.Context) ([]entity.Subreddit, error) {
	var subreddits []entity.Subreddit
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&subreddits).Error
	return subreddits, err
}

// UpdateLastScanned records when a subreddit was last scanned.
func (r *subredditRepository) UpdateLastScanned(ctx context.Context, name string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Subreddit{}).
		Where("name = ?", name).
		Update("last_scanned_at", at).Error
}
