package repository

import (
	"context"

	"reddit-lead-scout/internal/entity"

	"gorm.io/gorm"
)

// ResponseRepository records replies posted for approved opportunities.
type ResponseRepository interface {
	Create(ctx context.Context, response *entity.Response) error
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
