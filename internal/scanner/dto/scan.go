package dto

import "time"

// ScanRequest is the structured input of a scan invocation. All fields are
// optional; zero values fall back to configuration and the subreddit registry.
type ScanRequest struct {
	Subreddits []string `json:"subreddits,omitempty"`
	Queries    []string `json:"queries,omitempty"`
	MinScore   float64  `json:"min_score,omitempty"`
}

// SubredditScanResult summarizes one subreddit within a scan run.
type SubredditScanResult struct {
	Subreddit          string   `json:"subreddit"`
	PostsScanned       int      `json:"posts_scanned"`
	OpportunitiesFound int      `json:"opportunities_found"`
	NotificationsSent  int      `json:"notifications_sent"`
	Errors             []string `json:"errors,omitempty"`
}

// ScanSummary is the structured result of a whole scan invocation.
type ScanSummary struct {
	RunID              string                `json:"run_id"`
	SubredditsScanned  int                   `json:"subreddits_scanned"`
	PostsScanned       int                   `json:"posts_scanned"`
	OpportunitiesFound int                   `json:"opportunities_found"`
	NotificationsSent  int                   `json:"notifications_sent"`
	Expired            int64                 `json:"expired"`
	Results            []SubredditScanResult `json:"results"`
	StartedAt          time.Time             `json:"started_at"`
	Duration           time.Duration         `json:"duration"`
}
