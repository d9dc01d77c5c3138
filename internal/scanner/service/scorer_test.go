package service

import (
	"testing"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() []entity.Keyword {
	return []entity.Keyword{
		{Phrase: "looking for a tool", Category: "intent", Weight: 1.5},
		{Phrase: "monitoring", Category: "topic", Weight: 1.0},
		{Phrase: "struggling with", Category: "pain", Weight: 1.3},
	}
}

func TestScorer_NoMatches(t *testing.T) {
	scorer := NewScorer(config.Scoring{Saturation: 2.0})

	score, matched := scorer.Score("Weekly thread", "Share your wins", testRules())

	assert.Zero(t, score)
	assert.Empty(t, matched)
}

func TestScorer_CaseInsensitiveAndCapped(t *testing.T) {
	scorer := NewScorer(config.Scoring{Saturation: 2.0})

	score, matched := scorer.Score(
		"LOOKING FOR A TOOL for monitoring",
		"Still struggling with our setup.",
		testRules(),
	)

	// 1.5 + 1.0 + 1.3 = 3.8 over a saturation of 2.0, capped at 1.0.
	assert.Equal(t, 1.0, score)
	require.Len(t, matched, 3)
	assert.Equal(t, "looking for a tool", matched[0].Phrase)
}

func TestScorer_EachRuleCountsOnce(t *testing.T) {
	scorer := NewScorer(config.Scoring{Saturation: 2.0})

	score, matched := scorer.Score(
		"monitoring monitoring monitoring",
		"more monitoring",
		testRules(),
	)

	assert.InDelta(t, 0.5, score, 1e-9)
	require.Len(t, matched, 1)
	assert.Equal(t, "monitoring", matched[0].Phrase)
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := NewScorer(config.Scoring{Saturation: 5.0})
	title := "Looking for a tool to replace our monitoring stack"
	body := "We are struggling with alert fatigue."

	first, firstMatched := scorer.Score(title, body, testRules())
	second, secondMatched := scorer.Score(title, body, testRules())

	assert.Equal(t, first, second)
	assert.Equal(t, firstMatched, secondMatched)
}

func TestScorer_MoreMatchesNeverScoreLower(t *testing.T) {
	scorer := NewScorer(config.Scoring{Saturation: 5.0})

	low, _ := scorer.Score("monitoring", "", testRules())
	high, _ := scorer.Score("monitoring and struggling with scale", "", testRules())

	assert.Greater(t, high, low)
}

func TestScorer_TwoHeavyRulesSaturate(t *testing.T) {
	scorer := NewScorer(config.Scoring{Saturation: 2.0, HighThreshold: 0.8, MediumThreshold: 0.5})
	rules := []entity.Keyword{
		{Phrase: "alternative to", Category: "intent", Weight: 1.3},
		{Phrase: "recommendations", Category: "intent", Weight: 1.4},
	}

	// 1.3 + 1.4 = 2.7 over a saturation of 2.0: clamped to 1.0, high bucket.
	score, matched := scorer.Score("", "Any recommendations for an alternative to X?", rules)

	assert.Equal(t, 1.0, score)
	assert.Len(t, matched, 2)
	assert.Equal(t, entity.EngagementHigh, scorer.EngagementLevel(score))
}

func TestScorer_EngagementLevels(t *testing.T) {
	scorer := NewScorer(config.Scoring{Saturation: 5.0, HighThreshold: 0.8, MediumThreshold: 0.5})

	assert.Equal(t, entity.EngagementHigh, scorer.EngagementLevel(0.8))
	assert.Equal(t, entity.EngagementMedium, scorer.EngagementLevel(0.5))
	assert.Equal(t, entity.EngagementLow, scorer.EngagementLevel(0.49))
}

func TestScorer_Defaults(t *testing.T) {
	scorer := NewScorer(config.Scoring{})

	// 1.5+1.0+1.3 = 3.8 over the default saturation of 5.0.
	score, _ := scorer.Score("looking for a tool for monitoring, struggling with it", "", testRules())
	assert.InDelta(t, 0.76, score, 1e-9)
	assert.Equal(t, entity.EngagementMedium, scorer.EngagementLevel(score))
}
