package service

import (
	"context"
	"fmt"
	"time"

	"reddit-lead-scout/internal/scanner/config"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/internal/scanner/repository"
	"reddit-lead-scout/pkg/logger"
	"reddit-lead-scout/pkg/slack"
	"reddit-lead-scout/pkg/telegram"
)

// DigestService defines the interface for the periodic digest.
type DigestService interface {
	Send(ctx context.Context) (*dto.DigestSummary, error)
}

// NewDigestService creates a new digest service. telegramNotifier may be nil
// when the Telegram mirror is disabled.
func NewDigestService(
	cfg *config.Config,
	log *logger.Logger,
	oppRepo repository.OpportunityRepository,
	notifier slack.Notifier,
	telegramNotifier telegram.Notifier,
) DigestService {
	return &digestService{
		cfg:              cfg,
		log:              log,
		oppRepo:          oppRepo,
		notifier:         notifier,
		telegramNotifier: telegramNotifier,
	}
}

type digestService struct {
	cfg              *config.Config
	log              *logger.Logger
	oppRepo          repository.OpportunityRepository
	notifier         slack.Notifier
	telegramNotifier telegram.Notifier
}

// Send aggregates the recent window and posts the digest. The Telegram mirror
// is best effort and never fails the digest.
func (s *digestService) Send(ctx context.Context) (*dto.DigestSummary, error) {
	windowDays := s.cfg.Digest.WindowDays
	if windowDays <= 0 {
		windowDays = 1
	}
	topN := s.cfg.Digest.TopN
	if topN <= 0 {
		topN = 5
	}

	now := time.Now()
	since := now.AddDate(0, 0, -windowDays)

	counts, err := s.oppRepo.CountByStatusSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}

	bySubreddit, err := s.oppRepo.CountBySubredditSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count opportunities by subreddit: %w", err)
	}

	topPending, err := s.oppRepo.TopPendingSince(ctx, since, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to load top pending opportunities: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	window := "Last 24 hours"
	if windowDays > 1 {
		window = fmt.Sprintf("Last %d days", windowDays)
	}

	digest := &dto.DigestSummary{
		Window:      window,
		WindowDays:  windowDays,
		Counts:      counts,
		BySubreddit: bySubreddit,
		Total:       total,
		TopPending:  topPending,
		GeneratedAt: now,
	}

	if err := s.notifier.PostDigest(ctx, digest); err != nil {
		return nil, fmt.Errorf("failed to post digest: %w", err)
	}

	if s.telegramNotifier != nil {
		if err := s.telegramNotifier.SendMessage(telegram.FormatDigest(digest)); err != nil {
			s.log.WarnContext(ctx, "Failed to mirror digest to Telegram", logger.ErrorField(err))
		}
	}

	s.log.InfoContext(ctx, "Digest sent",
		logger.StringField("window", window),
		logger.Field("total", total),
		logger.IntField("top_pending", len(topPending)),
	)
	return digest, nil
}
