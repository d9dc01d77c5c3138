package entity

import (
	"time"

	"github.com/lib/pq"
)

// ScanLog records one scan invocation of one subreddit. Rows are append-only
// and exist purely for observability.
type ScanLog struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	RunID              string         `gorm:"index" json:"run_id"`
	Subreddit          string         `gorm:"not null" json:"subreddit"`
	PostsScanned       int            `json:"posts_scanned"`
	OpportunitiesFound int            `json:"opportunities_found"`
	Errors             pq.StringArray `gorm:"type:text[]" json:"errors,omitempty"`
	StartedAt          time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	DurationSeconds    float64        `json:"duration_seconds"`
}

func (ScanLog) TableName() string {
	return "scan_logs"
}
