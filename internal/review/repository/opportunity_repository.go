package repository

import (
	"context"
	"errors"
	"time"

	"reddit-lead-scout/internal/entity"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// OpportunityRepository is the review side of opportunity persistence: lookup
// and the conditional status transition.
type OpportunityRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Opportunity, error)
	UpdateStatusIf(ctx context.Context, id uint, from, to entity.Status, actor string, at time.Time) (bool, error)
}

// NewOpportunityRepository creates a new GORM-based opportunity repository.
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

type opportunityRepository struct {
	db *gorm.DB
}

func (r *opportunityRepository) FindByID(ctx context.Context, id uint) (*entity.Opportunity, error) {
	var opp entity.Opportunity
	if err := r.db.WithContext(ctx).First(&opp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// UpdateStatusIf applies a transition only when the row is still in the
// expected status, so concurrent reviewers cannot both win.
func (r *opportunityRepository) UpdateStatusIf(ctx context.Context, id uint, from, to entity.Status, actor string, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if to == entity.StatusResponded {
		updates["responded_at"] = at
	} else {
		updates["reviewed_at"] = at
		updates["reviewed_by"] = actor
	}

	res := r.db.WithContext(ctx).Model(&entity.Opportunity{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
