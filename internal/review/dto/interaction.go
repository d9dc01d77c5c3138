package dto

import "reddit-lead-scout/internal/entity"

// InteractionPayload mirrors the parts of Slack's block_actions payload the
// review flow needs.
type InteractionPayload struct {
	Type string `json:"type"`
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Message struct {
		TS string `json:"ts"`
	} `json:"message"`
	Actions []InteractionAction `json:"actions"`
}

// InteractionAction is one button press within the payload.
type InteractionAction struct {
	ActionID string `json:"action_id"`
	BlockID  string `json:"block_id"`
	Value    string `json:"value"`
	ActionTS string `json:"action_ts"`
}

// ReviewCommand is the normalized form of one button press.
type ReviewCommand struct {
	OpportunityID uint
	Action        entity.Action
	Actor         string
	ActorName     string
	ActionTS      string
}

// Outcome classifies what Process did with a command.
type Outcome string

const (
	// OutcomeApplied means the transition was performed.
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate means the event was already processed and ignored.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeNoop means the transition was illegal or lost a race; state is unchanged.
	OutcomeNoop Outcome = "noop"
	// OutcomeNotFound means the opportunity does not exist.
	OutcomeNotFound Outcome = "not_found"
)

// ReviewResult is the structured result of processing one command.
type ReviewResult struct {
	Outcome     Outcome             `json:"outcome"`
	Opportunity *entity.Opportunity `json:"opportunity,omitempty"`
}
