package common

const (
	// Slack interactive action IDs attached to opportunity notifications.
	ActionApprove       = "approve_opportunity"
	ActionReject        = "reject_opportunity"
	ActionMarkResponded = "mark_responded"
	ActionViewReddit    = "view_reddit"

	// RedisKeyReviewEventDedup is the prefix for processed interaction events.
	RedisKeyReviewEventDedup = "review.event.dedup:"
)
