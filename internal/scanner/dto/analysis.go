package dto

// OpportunityAnalysis is the structured output of the AI analyzer for one
// candidate. Stored verbatim in the opportunity's ai_analysis column.
type OpportunityAnalysis struct {
	Intent            string   `json:"intent"`
	Summary           string   `json:"summary"`
	Topics            []string `json:"topics,omitempty"`
	ConfidenceScore   float64  `json:"confidence_score"`
	SuggestedResponse string   `json:"suggested_response"`
}
