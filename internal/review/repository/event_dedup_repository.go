package repository

import (
	"context"
	"time"

	"reddit-lead-scout/pkg/common"

	"github.com/redis/go-redis/v9"
)

// EventDedupRepository defines the interface for interaction replay suppression.
type EventDedupRepository interface {
	MarkProcessed(ctx context.Context, eventKey string, ttl time.Duration) (bool, error)
}

// NewEventDedupRepository creates a Redis-backed dedup repository.
func NewEventDedupRepository(client *redis.Client) EventDedupRepository {
	return &eventDedupRepository{client: client}
}

type eventDedupRepository struct {
	client *redis.Client
}

// MarkProcessed atomically claims an event key. Returns true when this caller
// is the first to see the event within the TTL window.
func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventKey string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, common.RedisKeyReviewEventDedup+eventKey, 1, ttl).Result()
}
