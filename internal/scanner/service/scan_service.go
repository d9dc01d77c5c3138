package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/config"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/internal/scanner/repository"
	"reddit-lead-scout/pkg/logger"
	"reddit-lead-scout/pkg/slack"
	"reddit-lead-scout/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScanService defines the interface for the scan orchestrator.
type ScanService interface {
	Scan(ctx context.Context, req dto.ScanRequest) (*dto.ScanSummary, error)
}

// NewScanService creates a new scan orchestrator. aiRepo may be nil when AI
// analysis is disabled.
func NewScanService(
	cfg *config.Config,
	log *logger.Logger,
	oppRepo repository.OpportunityRepository,
	keywordRepo repository.KeywordRepository,
	subredditRepo repository.SubredditRepository,
	scanLogRepo repository.ScanLogRepository,
	redditRepo repository.RedditRepository,
	aiRepo repository.AIRepository,
	notifier slack.Notifier,
) ScanService {
	return &scanService{
		cfg:           cfg,
		log:           log,
		oppRepo:       oppRepo,
		keywordRepo:   keywordRepo,
		subredditRepo: subredditRepo,
		scanLogRepo:   scanLogRepo,
		redditRepo:    redditRepo,
		aiRepo:        aiRepo,
		notifier:      notifier,
		scorer:        NewScorer(cfg.Scanner.Scoring),
	}
}

type scanService struct {
	cfg           *config.Config
	log           *logger.Logger
	oppRepo       repository.OpportunityRepository
	keywordRepo   repository.KeywordRepository
	subredditRepo repository.SubredditRepository
	scanLogRepo   repository.ScanLogRepository
	redditRepo    repository.RedditRepository
	aiRepo        repository.AIRepository
	notifier      slack.Notifier
	scorer        *Scorer
}

// Scan runs one full pass over the configured subreddits. Subreddits are
// scanned concurrently under a semaphore; a failure in one never aborts the
// others. After the pass, stale pending and approved opportunities are expired.
func (s *scanService) Scan(ctx context.Context, req dto.ScanRequest) (*dto.ScanSummary, error) {
	startedAt := time.Now()
	runID := uuid.NewString()

	rules, err := s.keywordRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword rules: %w", err)
	}
	if len(rules) == 0 {
		s.log.WarnContext(ctx, "No active keyword rules, nothing to scan for", logger.StringField("run_id", runID))
		return &dto.ScanSummary{RunID: runID, StartedAt: startedAt, Duration: time.Since(startedAt)}, nil
	}

	subreddits := req.Subreddits
	if len(subreddits) == 0 {
		active, err := s.subredditRepo.GetActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load subreddit registry: %w", err)
		}
		for _, sub := range active {
			subreddits = append(subreddits, sub.Name)
		}
	}
	if len(subreddits) == 0 {
		s.log.WarnContext(ctx, "No active subreddits to scan", logger.StringField("run_id", runID))
		return &dto.ScanSummary{RunID: runID, StartedAt: startedAt, Duration: time.Since(startedAt)}, nil
	}

	queries := req.Queries
	if len(queries) == 0 {
		queries = s.deriveQueries(rules)
	}

	minScore := req.MinScore
	if minScore <= 0 {
		minScore = s.cfg.Scanner.MinRelevanceScore
	}

	s.log.InfoContext(ctx, "Starting scan run",
		logger.StringField("run_id", runID),
		logger.IntField("subreddits", len(subreddits)),
		logger.IntField("queries", len(queries)),
		logger.Float64Field("min_score", minScore),
	)

	maxConcurrent := s.cfg.Scanner.MaxConcurrentScans
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []dto.SubredditScanResult
	)
	for _, name := range subreddits {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		sem <- struct{}{}
		wg.Add(1)

		subreddit := name
		utils.GoSafe(func() {
			defer wg.Done()
			defer func() { <-sem }()

			result := s.scanSubreddit(ctx, runID, subreddit, queries, rules, minScore)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	wg.Wait()

	expired, err := s.oppRepo.ExpireStale(ctx, s.cfg.Scanner.ExpireAfter)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to expire stale opportunities", logger.ErrorField(err))
	}

	summary := &dto.ScanSummary{
		RunID:             runID,
		SubredditsScanned: len(results),
		Expired:           expired,
		Results:           results,
		StartedAt:         startedAt,
		Duration:          time.Since(startedAt),
	}
	for _, r := range results {
		summary.PostsScanned += r.PostsScanned
		summary.OpportunitiesFound += r.OpportunitiesFound
		summary.NotificationsSent += r.NotificationsSent
	}

	s.log.InfoContext(ctx, "Scan run completed",
		logger.StringField("run_id", runID),
		logger.IntField("posts_scanned", summary.PostsScanned),
		logger.IntField("opportunities_found", summary.OpportunitiesFound),
		logger.IntField("notifications_sent", summary.NotificationsSent),
		logger.Field("expired", expired),
		logger.DurationField("duration", summary.Duration),
	)
	return summary, nil
}

// scanSubreddit runs all queries against one subreddit and records a scan log
// row. Errors are collected per subreddit instead of propagated.
func (s *scanService) scanSubreddit(ctx context.Context, runID, subreddit string, queries []string, rules []entity.Keyword, minScore float64) dto.SubredditScanResult {
	startedAt := time.Now()
	result := dto.SubredditScanResult{Subreddit: subreddit}
	seen := make(map[string]bool)

	for _, query := range queries {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		posts, err := s.redditRepo.Search(ctx, subreddit, query, s.cfg.Scanner.MaxPostsPerQuery)
		if err != nil {
			s.log.ErrorContext(ctx, "Subreddit search failed",
				logger.StringField("run_id", runID),
				logger.StringField("subreddit", subreddit),
				logger.StringField("query", query),
				logger.ErrorField(err),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("search %q: %v", query, err))
			continue
		}

		for _, post := range posts {
			if seen[post.RedditID] {
				continue
			}
			seen[post.RedditID] = true

			if s.skipPost(post) {
				continue
			}
			result.PostsScanned++

			if err := s.processPost(ctx, post, rules, minScore, &result); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("post %s: %v", post.RedditID, err))
			}
		}
	}

	if err := s.subredditRepo.UpdateLastScanned(ctx, subreddit, time.Now()); err != nil {
		s.log.WarnContext(ctx, "Failed to update last scanned time",
			logger.StringField("subreddit", subreddit),
			logger.ErrorField(err),
		)
	}

	completedAt := time.Now()
	scanLog := &entity.ScanLog{
		RunID:              runID,
		Subreddit:          subreddit,
		PostsScanned:       result.PostsScanned,
		OpportunitiesFound: result.OpportunitiesFound,
		Errors:             result.Errors,
		StartedAt:          startedAt,
		CompletedAt:        &completedAt,
		DurationSeconds:    completedAt.Sub(startedAt).Seconds(),
	}
	if err := s.scanLogRepo.Create(ctx, scanLog); err != nil {
		s.log.ErrorContext(ctx, "Failed to record scan log",
			logger.StringField("run_id", runID),
			logger.StringField("subreddit", subreddit),
			logger.ErrorField(err),
		)
	}
	return result
}

func (s *scanService) skipPost(post dto.RedditPost) bool {
	if post.NSFW || post.Locked {
		return true
	}
	if s.cfg.Scanner.PostMaxAgeHours > 0 && post.PostAgeHours > s.cfg.Scanner.PostMaxAgeHours {
		return true
	}
	return false
}

// processPost scores, persists and (for new rows above the threshold)
// notifies one candidate. Zero-match candidates are not persisted at all.
func (s *scanService) processPost(ctx context.Context, post dto.RedditPost, rules []entity.Keyword, minScore float64, result *dto.SubredditScanResult) error {
	body := post.Body
	if body == "" && !post.IsSelf && s.cfg.Reddit.FetchLinkContent && post.URL != "" {
		content, err := s.redditRepo.FetchLinkContent(ctx, post.URL)
		if err != nil {
			s.log.DebugContext(ctx, "Failed to fetch link content",
				logger.StringField("reddit_id", post.RedditID),
				logger.ErrorField(err),
			)
		} else {
			body = utils.TruncateText(content, 4000)
		}
	}

	score, matched := s.scorer.Score(post.Title, body, rules)
	if len(matched) == 0 {
		return nil
	}

	matchedJSON, err := json.Marshal(matched)
	if err != nil {
		return fmt.Errorf("failed to encode matched keywords: %w", err)
	}

	opp := &entity.Opportunity{
		RedditID:            post.RedditID,
		Subreddit:           post.Subreddit,
		PostType:            entity.PostType(post.PostType),
		Title:               post.Title,
		Body:                body,
		Author:              post.Author,
		Permalink:           post.Permalink,
		URL:                 post.URL,
		Upvotes:             post.Upvotes,
		CommentCount:        post.CommentCount,
		PostAgeHours:        post.PostAgeHours,
		RelevanceScore:      score,
		EngagementPotential: s.scorer.EngagementLevel(score),
		MatchedKeywords:     datatypes.JSON(matchedJSON),
		Status:              entity.StatusPending,
	}

	isNew, err := s.oppRepo.Upsert(ctx, opp)
	if err != nil {
		return fmt.Errorf("failed to persist opportunity: %w", err)
	}
	if !isNew {
		return nil
	}
	result.OpportunitiesFound++

	if score < minScore {
		return nil
	}

	if s.aiRepo != nil {
		s.analyze(ctx, opp, post, matched)
	}

	messageTS, err := s.notifier.PostOpportunity(ctx, opp)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	if err := s.oppRepo.SetNotificationRef(ctx, opp.ID, messageTS); err != nil {
		return fmt.Errorf("failed to store notification ref: %w", err)
	}
	opp.SlackMessageTS = messageTS
	result.NotificationsSent++
	return nil
}

// analyze enriches a new opportunity with AI analysis, best effort.
func (s *scanService) analyze(ctx context.Context, opp *entity.Opportunity, post dto.RedditPost, matched []entity.MatchedKeyword) {
	analysis, err := s.aiRepo.Analyze(ctx, post, matched)
	if err != nil {
		s.log.WarnContext(ctx, "AI analysis failed",
			logger.StringField("reddit_id", opp.RedditID),
			logger.ErrorField(err),
		)
		return
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to encode AI analysis", logger.ErrorField(err))
		return
	}
	if err := s.oppRepo.SetAnalysis(ctx, opp.ID, datatypes.JSON(analysisJSON), analysis.SuggestedResponse); err != nil {
		s.log.WarnContext(ctx, "Failed to store AI analysis",
			logger.StringField("reddit_id", opp.RedditID),
			logger.ErrorField(err),
		)
		return
	}
	opp.AIAnalysis = datatypes.JSON(analysisJSON)
	opp.SuggestedResponse = analysis.SuggestedResponse
}

// deriveQueries picks the heaviest phrase per category as the search query
// set. Rules arrive ordered by weight, so the first phrase seen for a
// category wins. Uncategorized phrases count as their own category.
func (s *scanService) deriveQueries(rules []entity.Keyword) []string {
	max := s.cfg.Scanner.MaxQueriesPerSubreddit
	if max <= 0 {
		max = 5
	}

	seen := make(map[string]bool)
	var queries []string
	for _, rule := range rules {
		if len(queries) >= max {
			break
		}
		category := rule.Category
		if category == "" {
			category = rule.Phrase
		}
		if seen[category] {
			continue
		}
		seen[category] = true
		queries = append(queries, rule.Phrase)
	}
	return queries
}
