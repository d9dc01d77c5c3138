package repository

import (
	"context"

	"reddit-lead-scout/internal/entity"

	"gorm.io/gorm"
)

// ResponseRepository defines the interface for posted-response tracking.
type ResponseRepository interface {
	Create(ctx context.Context, response *entity.Response) error
	ListByOpportunity(ctx context.Context, opportunityID uint) ([]entity.Response, error)
}

// NewResponseRepository creates a new GORM-based response repository.
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

type responseRepository struct {
	db *gorm.DB
}

func (r *responseRepository) Create(ctx context.Context, response *entity.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r *responseRepository) ListByOpportunity(ctx context.Context, opportunityID uint) ([]entity.Response, error) {
	var responses []entity.Response
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Order("posted_at ASC").
		Find(&responses).Error
	return responses, err
}
