package repository

import (
	"context"

	"reddit-lead-scout/internal/entity"

	"gorm.io/gorm"
)

// ScanLogRepository defines the interface for scan run bookkeeping.
type ScanLogRepository interface {
	Create(ctx context.Context, log *entity.ScanLog) error
}

// NewScanLogRepository creates a new GORM-based scan log repository.
func NewScanLogRepository(db *gorm.DB) ScanLogRepository {
	return &scanLogRepository{db: db}
}

type scanLogRepository struct {
	db *gorm.DB
}

func (r *scanLogRepository) Create(ctx context.Context, log *entity.ScanLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
