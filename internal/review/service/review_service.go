package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/review/config"
	"reddit-lead-scout/internal/review/dto"
	"reddit-lead-scout/internal/review/repository"
	"reddit-lead-scout/pkg/logger"
	"reddit-lead-scout/pkg/slack"
)

const defaultDedupTTL = 24 * time.Hour

// ReviewService defines the interface for processing review commands.
type ReviewService interface {
	Process(ctx context.Context, cmd dto.ReviewCommand) (*dto.ReviewResult, error)
}

// NewReviewService creates a new review service.
func NewReviewService(
	cfg *config.Config,
	log *logger.Logger,
	oppRepo repository.OpportunityRepository,
	responseRepo repository.ResponseRepository,
	dedupRepo repository.EventDedupRepository,
	notifier slack.Notifier,
) ReviewService {
	return &reviewService{
		cfg:          cfg,
		log:          log,
		oppRepo:      oppRepo,
		responseRepo: responseRepo,
		dedupRepo:    dedupRepo,
		notifier:     notifier,
	}
}

type reviewService struct {
	cfg          *config.Config
	log          *logger.Logger
	oppRepo      repository.OpportunityRepository
	responseRepo repository.ResponseRepository
	dedupRepo    repository.EventDedupRepository
	notifier     slack.Notifier
}

// Process applies one review command. Replayed events are ignored, illegal
// transitions leave state untouched, and the database write wins over the
// Slack update: a failed message refresh is logged but never rolls back the
// transition.
func (s *reviewService) Process(ctx context.Context, cmd dto.ReviewCommand) (*dto.ReviewResult, error) {
	ttl := s.cfg.Review.DedupTTL
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}

	eventKey := fmt.Sprintf("%s|%s|%s", cmd.Actor, cmd.Action, cmd.ActionTS)
	first, err := s.dedupRepo.MarkProcessed(ctx, eventKey, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to check event dedup: %w", err)
	}
	if !first {
		s.log.InfoContext(ctx, "Ignoring replayed review event",
			logger.StringField("event_key", eventKey),
			logger.Field("opportunity_id", cmd.OpportunityID),
		)
		return &dto.ReviewResult{Outcome: dto.OutcomeDuplicate}, nil
	}

	opp, err := s.oppRepo.FindByID(ctx, cmd.OpportunityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &dto.ReviewResult{Outcome: dto.OutcomeNotFound}, nil
		}
		return nil, fmt.Errorf("failed to load opportunity: %w", err)
	}

	next, legal := entity.NextStatus(opp.Status, cmd.Action)
	if !legal {
		s.log.InfoContext(ctx, "Ignoring illegal transition",
			logger.Field("opportunity_id", opp.ID),
			logger.StringField("status", string(opp.Status)),
			logger.StringField("action", string(cmd.Action)),
		)
		return &dto.ReviewResult{Outcome: dto.OutcomeNoop, Opportunity: opp}, nil
	}

	now := time.Now()
	applied, err := s.oppRepo.UpdateStatusIf(ctx, opp.ID, opp.Status, next, cmd.Actor, now)
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}
	if !applied {
		// Lost a race against another reviewer; re-read so the caller sees
		// what actually happened.
		current, err := s.oppRepo.FindByID(ctx, opp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload opportunity: %w", err)
		}
		return &dto.ReviewResult{Outcome: dto.OutcomeNoop, Opportunity: current}, nil
	}

	if cmd.Action == entity.ActionMarkResponded {
		s.recordResponse(ctx, opp, cmd, now)
	}

	updated, err := s.oppRepo.FindByID(ctx, opp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload opportunity: %w", err)
	}

	if updated.SlackMessageTS != "" {
		if err := s.notifier.UpdateOpportunity(ctx, updated.SlackMessageTS, updated); err != nil {
			s.log.ErrorContext(ctx, "Failed to refresh Slack message",
				logger.Field("opportunity_id", updated.ID),
				logger.StringField("message_ts", updated.SlackMessageTS),
				logger.ErrorField(err),
			)
		}
	}

	s.log.InfoContext(ctx, "Review transition applied",
		logger.Field("opportunity_id", updated.ID),
		logger.StringField("from", string(opp.Status)),
		logger.StringField("to", string(next)),
		logger.StringField("actor", cmd.Actor),
	)
	return &dto.ReviewResult{Outcome: dto.OutcomeApplied, Opportunity: updated}, nil
}

// recordResponse stores the response row for a mark-responded command, best
// effort. The transition already happened; a bookkeeping failure only logs.
func (s *reviewService) recordResponse(ctx context.Context, opp *entity.Opportunity, cmd dto.ReviewCommand, at time.Time) {
	text := opp.SuggestedResponse
	if text == "" {
		text = "(responded manually)"
	}
	response := &entity.Response{
		OpportunityID: opp.ID,
		Text:          text,
		PostedAt:      at,
		PostedBy:      cmd.Actor,
	}
	if err := s.responseRepo.Create(ctx, response); err != nil {
		s.log.ErrorContext(ctx, "Failed to record response",
			logger.Field("opportunity_id", opp.ID),
			logger.ErrorField(err),
		)
	}
}
