package service

import (
	"strings"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/config"
)

// Scorer turns keyword rule matches into a normalized relevance score.
// Scoring is pure: the same text and rules always produce the same score,
// so re-scanning a post never flaps its relevance.
type Scorer struct {
	saturation      float64
	highThreshold   float64
	mediumThreshold float64
}

// NewScorer creates a Scorer from the scoring configuration. Zero values fall
// back to a saturation of 5.0 and the 0.8/0.5 engagement thresholds.
func NewScorer(cfg config.Scoring) *Scorer {
	s := &Scorer{
		saturation:      cfg.Saturation,
		highThreshold:   cfg.HighThreshold,
		mediumThreshold: cfg.MediumThreshold,
	}
	if s.saturation <= 0 {
		s.saturation = 5.0
	}
	if s.highThreshold <= 0 {
		s.highThreshold = 0.8
	}
	if s.mediumThreshold <= 0 {
		s.mediumThreshold = 0.5
	}
	return s
}

// Score matches the rules against title and body, case-insensitively. Each
// rule contributes its weight at most once no matter how often the phrase
// occurs. The weight sum is normalized against the saturation point and
// capped at 1.0. Matched rules come back in the order they were given.
func (s *Scorer) Score(title, body string, rules []entity.Keyword) (float64, []entity.MatchedKeyword) {
	haystack := strings.ToLower(title + "\n" + body)

	var sum float64
	var matched []entity.MatchedKeyword
	for _, rule := range rules {
		phrase := strings.ToLower(strings.TrimSpace(rule.Phrase))
		if phrase == "" {
			continue
		}
		if !strings.Contains(haystack, phrase) {
			continue
		}
		sum += rule.Weight
		matched = append(matched, entity.MatchedKeyword{
			Phrase:   rule.Phrase,
			Category: rule.Category,
			Weight:   rule.Weight,
		})
	}

	score := sum / s.saturation
	if score > 1.0 {
		score = 1.0
	}
	return score, matched
}

// EngagementLevel buckets a normalized score.
func (s *Scorer) EngagementLevel(score float64) entity.EngagementLevel {
	switch {
	case score >= s.highThreshold:
		return entity.EngagementHigh
	case score >= s.mediumThreshold:
		return entity.EngagementMedium
	default:
		return entity.EngagementLow
	}
}
