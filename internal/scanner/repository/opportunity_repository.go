package repository

import (
	"context"
	"errors"
	"time"

	"reddit-lead-scout/internal/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// OpportunityRepository defines the interface for opportunity persistence.
// Upsert and UpdateStatusIf are the two atomicity points the pipeline's
// correctness relies on.
type OpportunityRepository interface {
	Upsert(ctx context.Context, opp *entity.Opportunity) (bool, error)
	FindByID(ctx context.Context, id uint) (*entity.Opportunity, error)
	FindByRedditID(ctx context.Context, redditID string) (*entity.Opportunity, error)
	FindByStatus(ctx context.Context, status entity.Status, limit int) ([]entity.Opportunity, error)
	FindRecent(ctx context.Context, limit int) ([]entity.Opportunity, error)
	UpdateStatusIf(ctx context.Context, id uint, from, to entity.Status, actor string, at time.Time) (bool, error)
	SetNotificationRef(ctx context.Context, id uint, messageTS string) error
	SetAnalysis(ctx context.Context, id uint, analysis datatypes.JSON, suggestedResponse string) error
	CountByStatusSince(ctx context.Context, since time.Time) (map[entity.Status]int64, error)
	CountBySubredditSince(ctx context.Context, since time.Time) (map[string]int64, error)
	TopPendingSince(ctx context.Context, since time.Time, limit int) ([]entity.Opportunity, error)
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewOpportunityRepository creates a new GORM-based opportunity repository.
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

type opportunityRepository struct {
	db *gorm.DB
}

// Upsert inserts the opportunity or, when the reddit_id already exists,
// refreshes only the mutable engagement counters. Status, review fields and
// the notification reference are never touched on the update path, which is
// what guarantees at-most-one notification per reddit_id. Returns true when
// a new row was created.
func (r *opportunityRepository) Upsert(ctx context.Context, opp *entity.Opportunity) (bool, error) {
	isNew := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reddit_id"}},
			DoNothing: true,
		}).Create(opp)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			isNew = true
			return nil
		}

		updates := map[string]interface{}{
			"upvotes":        opp.Upvotes,
			"comment_count":  opp.CommentCount,
			"post_age_hours": opp.PostAgeHours,
		}
		if err := tx.Model(&entity.Opportunity{}).
			Where("reddit_id = ?", opp.RedditID).
			Updates(updates).Error; err != nil {
			return err
		}

		var existing entity.Opportunity
		if err := tx.Where("reddit_id = ?", opp.RedditID).First(&existing).Error; err != nil {
			return err
		}
		*opp = existing
		return nil
	})
	return isNew, err
}

// FindByID retrieves an opportunity with its responses.
func (r *opportunityRepository) FindByID(ctx context.Context, id uint) (*entity.Opportunity, error) {
	var opp entity.Opportunity
	if err := r.db.WithContext(ctx).Preload("Responses").First(&opp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// FindByRedditID retrieves an opportunity by its external identifier.
func (r *opportunityRepository) FindByRedditID(ctx context.Context, redditID string) (*entity.Opportunity, error) {
	var opp entity.Opportunity
	if err := r.db.WithContext(ctx).Where("reddit_id = ?", redditID).First(&opp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// FindByStatus lists opportunities in a status, most relevant first.
func (r *opportunityRepository) FindByStatus(ctx context.Context, status entity.Status, limit int) ([]entity.Opportunity, error) {
	var opps []entity.Opportunity
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("relevance_score DESC, created_at DESC").
		Limit(limit).
		Find(&opps).Error
	return opps, err
}

// FindRecent lists the most recently seen opportunities regardless of status.
func (r *opportunityRepository) FindRecent(ctx context.Context, limit int) ([]entity.Opportunity, error) {
	var opps []entity.Opportunity
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&opps).Error
	return opps, err
}

// UpdateStatusIf applies a status transition as a single conditional write:
// the row changes only when it is still in the expected `from` status, so two
// concurrent reviewers cannot both win. Returns false when the row was
// already moved by someone else.
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

// SetNotificationRef stores the Slack message timestamp used for in-place updates.
func (r *opportunityRepository) SetNotificationRef(ctx context.Context, id uint, messageTS string) error {
	return r.db.WithContext(ctx).Model(&entity.Opportunity{}).
		Where("id = ?", id).
		Update("slack_message_ts", messageTS).Error
}

// SetAnalysis stores the AI analysis blob and suggested response.
func (r *opportunityRepository) SetAnalysis(ctx context.Context, id uint, analysis datatypes.JSON, suggestedResponse string) error {
	return r.db.WithContext(ctx).Model(&entity.Opportunity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ai_analysis":        analysis,
			"suggested_response": suggestedResponse,
		}).Error
}

// CountByStatusSince groups opportunities created after `since` by status.
func (r *opportunityRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[entity.Status]int64, error) {
	type row struct {
		Status entity.Status
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.Opportunity{}).
		Select("status, COUNT(*) as count").
		Where("created_at > ?", since).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// CountBySubredditSince groups opportunities created after `since` by subreddit.
func (r *opportunityRepository) CountBySubredditSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		Subreddit string
		Count     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.Opportunity{}).
		Select("subreddit, COUNT(*) as count").
		Where("created_at > ?", since).
		Group("subreddit").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Subreddit] = r.Count
	}
	return counts, nil
}

// TopPendingSince lists the highest scoring pending opportunities in a window.
func (r *opportunityRepository) TopPendingSince(ctx context.Context, since time.Time, limit int) ([]entity.Opportunity, error) {
	var opps []entity.Opportunity
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at > ?", entity.StatusPending, since).
		Order("relevance_score DESC").
		Limit(limit).
		Find(&opps).Error
	return opps, err
}

// ExpireStale moves old pending and approved opportunities to expired.
// Expiry is the only time-driven transition and bypasses the action table.
func (r *opportunityRepository) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.WithContext(ctx).Model(&entity.Opportunity{}).
		Where("status IN ? AND created_at < ?", []entity.Status{entity.StatusPending, entity.StatusApproved}, cutoff).
		Update("status", entity.StatusExpired)
	return res.RowsAffected, res.Error
}
