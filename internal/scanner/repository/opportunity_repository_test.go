package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"reddit-lead-scout/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Opportunity{}, &entity.Response{}, &entity.Keyword{}, &entity.Subreddit{}))
	return db
}

func newOpportunity(redditID string, score float64) *entity.Opportunity {
	return &entity.Opportunity{
		RedditID:            redditID,
		Subreddit:           "golang",
		PostType:            entity.PostTypePost,
		Title:               "Looking for a monitoring tool",
		Body:                "Any recommendations?",
		Author:              "gopher",
		Permalink:           "https://www.reddit.com/r/golang/comments/" + redditID,
		Upvotes:             10,
		CommentCount:        3,
		PostAgeHours:        2,
		RelevanceScore:      score,
		EngagementPotential: entity.EngagementMedium,
		Status:              entity.StatusPending,
	}
}

func TestOpportunityRepository_UpsertNew(t *testing.T) {
	repo := NewOpportunityRepository(newTestDB(t))
	ctx := context.Background()

	opp := newOpportunity("t3_new1", 0.6)
	isNew, err := repo.Upsert(ctx, opp)

	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotZero(t, opp.ID)
}

func TestOpportunityRepository_UpsertExistingKeepsReviewState(t *testing.T) {
	repo := NewOpportunityRepository(newTestDB(t))
	ctx := context.Background()

	first := newOpportunity("t3_dup1", 0.6)
	isNew, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	require.True(t, isNew)

	require.NoError(t, repo.SetNotificationRef(ctx, first.ID, "1724930000.000100"))
	applied, err := repo.UpdateStatusIf(ctx, first.ID, entity.StatusPending, entity.StatusApproved, "U123", time.Now())
	require.NoError(t, err)
	require.True(t, applied)

	// Second sighting with fresher counters and a different score.
	second := newOpportunity("t3_dup1", 0.9)
	second.Upvotes = 50
	second.CommentCount = 12
	second.PostAgeHours = 8

	isNew, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, isNew)

	// Counters refreshed, everything else untouched.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 50, second.Upvotes)
	assert.Equal(t, 12, second.CommentCount)
	assert.Equal(t, 0.6, second.RelevanceScore)
	assert.Equal(t, entity.StatusApproved, second.Status)
	assert.Equal(t, "1724930000.000100", second.SlackMessageTS)
}

func TestOpportunityRepository_UpdateStatusIf(t *testing.T) {
	repo := NewOpportunityRepository(newTestDB(t))
	ctx := context.Background()

	opp := newOpportunity("t3_cas1", 0.7)
	_, err := repo.Upsert(ctx, opp)
	require.NoError(t, err)

	now := time.Now()
	applied, err := repo.UpdateStatusIf(ctx, opp.ID, entity.StatusPending, entity.StatusApproved, "U123", now)
	require.NoError(t, err)
	assert.True(t, applied)

	// A second transition from the same expected status loses.
	applied, err = repo.UpdateStatusIf(ctx, opp.ID, entity.StatusPending, entity.StatusRejected, "U456", now)
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := repo.FindByID(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, stored.Status)
	assert.Equal(t, "U123", stored.ReviewedBy)
	require.NotNil(t, stored.ReviewedAt)
}

func TestOpportunityRepository_UpdateStatusIfResponded(t *testing.T) {
	repo := NewOpportunityRepository(newTestDB(t))
	ctx := context.Background()

	opp := newOpportunity("t3_resp1", 0.7)
	_, err := repo.Upsert(ctx, opp)
	require.NoError(t, err)

	_, err = repo.UpdateStatusIf(ctx, opp.ID, entity.StatusPending, entity.StatusApproved, "U123", time.Now())
	require.NoError(t, err)

	applied, err := repo.UpdateStatusIf(ctx, opp.ID, entity.StatusApproved, entity.StatusResponded, "U123", time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	stored, err := repo.FindByID(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusResponded, stored.Status)
	require.NotNil(t, stored.RespondedAt)
	// Approval metadata survives the responded transition.
	assert.Equal(t, "U123", stored.ReviewedBy)
}

func TestOpportunityRepository_FindByIDNotFound(t *testing.T) {
	repo := NewOpportunityRepository(newTestDB(t))

	_, err := repo.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpportunityRepository_FindByStatusOrdering(t *testing.T) {
	repo := NewOpportunityRepository(newTestDB(t))
	ctx := context.Background()

	for i, score := range []float64{0.3, 0.9, 0.6} {
		opp := newOpportunity(fmt.Sprintf("t3_ord%d", i), score)
		_, err := repo.Upsert(ctx, opp)
		require.NoError(t, err)
	}

	opps, err := repo.FindByStatus(ctx, entity.StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, opps, 3)
	assert.Equal(t, 0.9, opps[0].RelevanceScore)
	assert.Equal(t, 0.6, opps[1].RelevanceScore)
	assert.Equal(t, 0.3, opps[2].RelevanceScore)
}

func TestOpportunityRepository_ExpireStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewOpportunityRepository(db)
	ctx := context.Background()

	stale := newOpportunity("t3_stale1", 0.6)
	_, err := repo.Upsert(ctx, stale)
	require.NoError(t, err)
	fresh := newOpportunity("t3_fresh1", 0.6)
	_, err = repo.Upsert(ctx, fresh)
	require.NoError(t, err)
	rejected := newOpportunity("t3_rej1", 0.6)
	_, err = repo.Upsert(ctx, rejected)
	require.NoError(t, err)

	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, db.Model(&entity.Opportunity{}).Where("id IN ?", []uint{stale.ID, rejected.ID}).
		Update("created_at", old).Error)
	_, err = repo.UpdateStatusIf(ctx, rejected.ID, entity.StatusPending, entity.StatusRejected, "U123", time.Now())
	require.NoError(t, err)

	expired, err := repo.ExpireStale(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	storedStale, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusExpired, storedStale.Status)

	storedFresh, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, storedFresh.Status)

	// Terminal rows are left alone even when old.
	storedRejected, err := repo.FindByID(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, storedRejected.Status)
}

func TestOpportunityRepository_DigestQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewOpportunityRepository(db)
	ctx := context.Background()

	inside := newOpportunity("t3_in1", 0.9)
	_, err := repo.Upsert(ctx, inside)
	require.NoError(t, err)
	inside2 := newOpportunity("t3_in2", 0.4)
	_, err = repo.Upsert(ctx, inside2)
	require.NoError(t, err)
	outside := newOpportunity("t3_out1", 0.8)
	_, err = repo.Upsert(ctx, outside)
	require.NoError(t, err)

	require.NoError(t, db.Model(&entity.Opportunity{}).Where("id = ?", outside.ID).
		Update("created_at", time.Now().Add(-49*time.Hour)).Error)
	_, err = repo.UpdateStatusIf(ctx, inside2.ID, entity.StatusPending, entity.StatusRejected, "U123", time.Now())
	require.NoError(t, err)

	since := time.Now().Add(-24 * time.Hour)
	counts, err := repo.CountByStatusSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[entity.StatusPending])
	assert.Equal(t, int64(1), counts[entity.StatusRejected])

	top, err := repo.TopPendingSince(ctx, since, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "t3_in1", top[0].RedditID)

	bySubreddit, err := repo.CountBySubredditSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bySubreddit["golang"])
}
