package repository

import (
	"fmt"
	"strings"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/utils"
)

// BuildAnalyzeOpportunityPrompt renders the analysis prompt for one candidate.
func BuildAnalyzeOpportunityPrompt(post dto.RedditPost, matched []entity.MatchedKeyword) string {
	var keywordBuilder strings.Builder
	for i, kw := range matched {
		keywordBuilder.WriteString(fmt.Sprintf("%d. %q (category: %s, weight: %.1f)\n", i+1, kw.Phrase, kw.Category, kw.Weight))
	}

	promptTemplate := `You are evaluating a Reddit post as a potential engagement opportunity for a developer-tools company.

Post from r/%s by u/%s (age: %.1f hours, %d upvotes, %d comments):

Title: %s

Body:
%s

Matched keyword rules:
%s
Respond ONLY with JSON in this exact format:

{
  "intent": "question | complaint | recommendation_request | discussion | other",
  "summary": "{one sentence, what the author wants}",
  "topics": ["{short topic tags}"],
  "confidence_score": {0.0 - 1.0},
  "suggested_response": "{a helpful, non-promotional reply draft in the author's register, 2-4 sentences}"
}`

	return fmt.Sprintf(promptTemplate,
		post.Subreddit,
		post.Author,
		post.PostAgeHours,
		post.Upvotes,
		post.CommentCount,
		post.Title,
		utils.TruncateText(post.Body, 4000),
		keywordBuilder.String(),
	)
}
