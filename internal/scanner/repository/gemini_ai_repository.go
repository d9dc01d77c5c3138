package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/config"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// AIRepository defines the interface for AI analysis of a scored candidate.
type AIRepository interface {
	Analyze(ctx context.Context, post dto.RedditPost, matched []entity.MatchedKeyword) (*dto.OpportunityAnalysis, error)
}

// geminiAIRepository is an implementation of AIRepository that uses the Google Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// Analyze asks Gemini to classify the candidate's intent and draft a response.
func (r *geminiAIRepository) Analyze(ctx context.Context, post dto.RedditPost, matched []entity.MatchedKeyword) (*dto.OpportunityAnalysis, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := BuildAnalyzeOpportunityPrompt(post, matched)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to send request to Gemini API",
			logger.ErrorField(err),
			logger.StringField("reddit_id", post.RedditID),
		)
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}

	return r.parseAnalysisResponse(resp)
}

func (r *geminiAIRepository) parseAnalysisResponse(resp *genai.GenerateContentResponse) (*dto.OpportunityAnalysis, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := resp.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	var result dto.OpportunityAnalysis
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result from Gemini response: %w", err)
	}
	return &result, nil
}
