package dto

import (
	"time"

	"reddit-lead-scout/internal/entity"
)

// DigestSummary aggregates pipeline state over a trailing window for the
// periodic summary message.
type DigestSummary struct {
	Window      string                  `json:"window"`
	WindowDays  int                     `json:"window_days"`
	Counts      map[entity.Status]int64 `json:"counts"`
	BySubreddit map[string]int64        `json:"by_subreddit"`
	Total       int64                   `json:"total"`
	TopPending  []entity.Opportunity    `json:"top_pending"`
	GeneratedAt time.Time               `json:"generated_at"`
}
