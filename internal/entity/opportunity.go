package entity

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Status is the review state of an opportunity.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusResponded Status = "responded"
	StatusExpired   Status = "expired"
)

// Action is a reviewer-driven command arriving through the messaging channel.
type Action string

const (
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionMarkResponded Action = "mark_responded"
)

// statusTransitions maps (current status, action) to the next status.
// Expiry is time-driven and deliberately absent: no user action reaches it.
var statusTransitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
	StatusApproved: {
		ActionMarkResponded: StatusResponded,
	},
}

// NextStatus returns the status reached by applying action to current, and
// whether the transition is legal.
func NextStatus(current Status, action Action) (Status, bool) {
	next, ok := statusTransitions[current][action]
	return next, ok
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusResponded || s == StatusExpired
}

// IsValid reports whether s is one of the known review states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusResponded, StatusExpired:
		return true
	}
	return false
}

// EngagementLevel buckets a relevance score for triage.
type EngagementLevel string

const (
	EngagementHigh   EngagementLevel = "high"
	EngagementMedium EngagementLevel = "medium"
	EngagementLow    EngagementLevel = "low"
)

// PostType distinguishes submissions from comments.
type PostType string

const (
	PostTypePost    PostType = "post"
	PostTypeComment PostType = "comment"
)

// Opportunity is a scored Reddit post awaiting or having completed human
// review. RedditID is unique: a second sighting updates engagement counters
// only and never resets status or the Slack message reference.
type Opportunity struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	RedditID            string          `gorm:"uniqueIndex;not null" json:"reddit_id"`
	Subreddit           string          `gorm:"not null;index" json:"subreddit"`
	PostType            PostType        `gorm:"not null;default:post" json:"post_type"`
	Title               string          `json:"title"`
	Body                string          `gorm:"not null" json:"body"`
	Author              string          `json:"author"`
	Permalink           string          `gorm:"not null" json:"permalink"`
	URL                 string          `json:"url,omitempty"`
	Upvotes             int             `json:"upvotes"`
	CommentCount        int             `json:"comment_count"`
	PostAgeHours        float64         `json:"post_age_hours"`
	RelevanceScore      float64         `gorm:"not null;index:idx_opportunities_score,sort:desc" json:"relevance_score"`
	EngagementPotential EngagementLevel `gorm:"not null;default:low" json:"engagement_potential"`
	MatchedKeywords     datatypes.JSON  `json:"matched_keywords"`
	AIAnalysis          datatypes.JSON  `json:"ai_analysis,omitempty"`
	SuggestedResponse   string          `json:"suggested_response,omitempty"`
	Status              Status          `gorm:"not null;default:pending;index" json:"status"`
	ReviewedAt          *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy          string          `json:"reviewed_by,omitempty"`
	RespondedAt         *time.Time      `json:"responded_at,omitempty"`
	SlackMessageTS      string          `json:"slack_message_ts,omitempty"`
	CreatedAt           time.Time       `gorm:"autoCreateTime;index:idx_opportunities_created,sort:desc" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Responses           []Response      `gorm:"foreignKey:OpportunityID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

// MatchedKeyword is one entry of the MatchedKeywords JSON blob, in rule
// evaluation order.
type MatchedKeyword struct {
	Phrase   string  `json:"phrase"`
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
}

// DecodeMatchedKeywords unmarshals the stored matched keyword list.
func (o *Opportunity) DecodeMatchedKeywords() ([]MatchedKeyword, error) {
	if len(o.MatchedKeywords) == 0 {
		return nil, nil
	}
	var matched []MatchedKeyword
	if err := json.Unmarshal(o.MatchedKeywords, &matched); err != nil {
		return nil, err
	}
	return matched, nil
}

// Response is a reply posted (manually) for an approved opportunity. Rows are
// owned by their opportunity and removed with it.
type Response struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	OpportunityID   uint       `gorm:"not null;index" json:"opportunity_id"`
	Text            string     `gorm:"not null" json:"text"`
	RedditCommentID string     `json:"reddit_comment_id,omitempty"`
	PostedAt        time.Time  `gorm:"autoCreateTime" json:"posted_at"`
	PostedBy        string     `json:"posted_by"`
	UpvotesReceived int        `json:"upvotes_received"`
	RepliesReceived int        `json:"replies_received"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
}

func (Response) TableName() string {
	return "responses"
}
