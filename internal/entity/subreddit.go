package entity

import "time"

// Subreddit is a monitored community. Only active rows are scanned.
type Subreddit struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"unique;not null" json:"name"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Subreddit) TableName() string {
	return "subreddits"
}
