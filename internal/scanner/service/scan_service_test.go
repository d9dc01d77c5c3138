package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/config"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeOpportunityRepo struct {
	mu          sync.Mutex
	byID        map[uint]*entity.Opportunity
	nextID      uint
	counts      map[entity.Status]int64
	bySubreddit map[string]int64
	topPending  []entity.Opportunity
}

func newFakeOpportunityRepo() *fakeOpportunityRepo {
	return &fakeOpportunityRepo{byID: make(map[uint]*entity.Opportunity), nextID: 1}
}

func (f *fakeOpportunityRepo) findByRedditIDLocked(redditID string) *entity.Opportunity {
	for _, opp := range f.byID {
		if opp.RedditID == redditID {
			return opp
		}
	}
	return nil
}

func (f *fakeOpportunityRepo) Upsert(ctx context.Context, opp *entity.Opportunity) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.findByRedditIDLocked(opp.RedditID); existing != nil {
		existing.Upvotes = opp.Upvotes
		existing.CommentCount = opp.CommentCount
		existing.PostAgeHours = opp.PostAgeHours
		*opp = *existing
		return false, nil
	}
	opp.ID = f.nextID
	f.nextID++
	stored := *opp
	f.byID[opp.ID] = &stored
	return true, nil
}

func (f *fakeOpportunityRepo) FindByID(ctx context.Context, id uint) (*entity.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opp, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	copied := *opp
	return &copied, nil
}

func (f *fakeOpportunityRepo) FindByRedditID(ctx context.Context, redditID string) (*entity.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if opp := f.findByRedditIDLocked(redditID); opp != nil {
		copied := *opp
		return &copied, nil
	}
	return nil, fmt.Errorf("not found")
}

func (f *fakeOpportunityRepo) FindByStatus(ctx context.Context, status entity.Status, limit int) ([]entity.Opportunity, error) {
	return nil, nil
}

func (f *fakeOpportunityRepo) FindRecent(ctx context.Context, limit int) ([]entity.Opportunity, error) {
	return nil, nil
}

func (f *fakeOpportunityRepo) UpdateStatusIf(ctx context.Context, id uint, from, to entity.Status, actor string, at time.Time) (bool, error) {
	return false, nil
}

func (f *fakeOpportunityRepo) SetNotificationRef(ctx context.Context, id uint, messageTS string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if opp, ok := f.byID[id]; ok {
		opp.SlackMessageTS = messageTS
	}
	return nil
}

func (f *fakeOpportunityRepo) SetAnalysis(ctx context.Context, id uint, analysis datatypes.JSON, suggestedResponse string) error {
	return nil
}

func (f *fakeOpportunityRepo) CountByStatusSince(ctx context.Context, since time.Time) (map[entity.Status]int64, error) {
	return f.counts, nil
}

func (f *fakeOpportunityRepo) CountBySubredditSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	return f.bySubreddit, nil
}

func (f *fakeOpportunityRepo) TopPendingSince(ctx context.Context, since time.Time, limit int) ([]entity.Opportunity, error) {
	if limit < len(f.topPending) {
		return f.topPending[:limit], nil
	}
	return f.topPending, nil
}

func (f *fakeOpportunityRepo) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

type fakeKeywordRepo struct {
	rules []entity.Keyword
}

func (f *fakeKeywordRepo) GetActive(ctx context.Context) ([]entity.Keyword, error) {
	return f.rules, nil
}

type fakeSubredditRepo struct {
	mu          sync.Mutex
	active      []entity.Subreddit
	lastScanned map[string]time.Time
}

func (f *fakeSubredditRepo) GetActive(ctx context.Context) ([]entity.Subreddit, error) {
	return f.active, nil
}

func (f *fakeSubredditRepo) UpdateLastScanned(ctx context.Context, name string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastScanned == nil {
		f.lastScanned = make(map[string]time.Time)
	}
	f.lastScanned[name] = at
	return nil
}

type fakeScanLogRepo struct {
	mu   sync.Mutex
	logs []entity.ScanLog
}

func (f *fakeScanLogRepo) Create(ctx context.Context, log *entity.ScanLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *log)
	return nil
}

type fakeRedditRepo struct {
	posts  map[string][]dto.RedditPost
	errors map[string]error
}

func (f *fakeRedditRepo) Search(ctx context.Context, subreddit, query string, limit int) ([]dto.RedditPost, error) {
	if err, ok := f.errors[subreddit]; ok {
		return nil, err
	}
	return f.posts[subreddit], nil
}

func (f *fakeRedditRepo) FetchLinkContent(ctx context.Context, pageURL string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

type fakeNotifier struct {
	mu      sync.Mutex
	posted  []string
	digests []*dto.DigestSummary
	nextTS  int
	err     error
}

func (f *fakeNotifier) PostOpportunity(ctx context.Context, opp *entity.Opportunity) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.posted = append(f.posted, opp.RedditID)
	f.nextTS++
	return fmt.Sprintf("1724930000.%06d", f.nextTS), nil
}

func (f *fakeNotifier) UpdateOpportunity(ctx context.Context, messageTS string, opp *entity.Opportunity) error {
	return nil
}

func (f *fakeNotifier) PostDigest(ctx context.Context, digest *dto.DigestSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.digests = append(f.digests, digest)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Scanner: config.Scanner{
			MinRelevanceScore:      0.5,
			MaxPostsPerQuery:       25,
			MaxQueriesPerSubreddit: 5,
			MaxConcurrentScans:     2,
			PostMaxAgeHours:        168,
			ExpireAfter:            48 * time.Hour,
			Scoring:                config.Scoring{Saturation: 2.0},
		},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func selfPost(redditID, title string) dto.RedditPost {
	return dto.RedditPost{
		RedditID:     redditID,
		Subreddit:    "golang",
		PostType:     "post",
		Title:        title,
		Body:         "some body",
		Author:       "gopher",
		Permalink:    "https://www.reddit.com/r/golang/comments/" + redditID,
		Upvotes:      5,
		CommentCount: 2,
		PostAgeHours: 1,
		IsSelf:       true,
	}
}

func newTestScanService(cfg *config.Config, t *testing.T, oppRepo *fakeOpportunityRepo, redditRepo *fakeRedditRepo, notifier *fakeNotifier, subreddits []string, scanLogs *fakeScanLogRepo) ScanService {
	var active []entity.Subreddit
	for _, name := range subreddits {
		active = append(active, entity.Subreddit{Name: name, IsActive: true})
	}
	return NewScanService(
		cfg,
		testLogger(t),
		oppRepo,
		&fakeKeywordRepo{rules: []entity.Keyword{
			{Phrase: "monitoring", Category: "topic", Weight: 1.5},
			{Phrase: "looking for", Category: "intent", Weight: 1.0},
		}},
		&fakeSubredditRepo{active: active},
		scanLogs,
		redditRepo,
		nil,
		notifier,
	)
}

func TestScanService_NotifiesNewMatchesOnce(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	notifier := &fakeNotifier{}
	redditRepo := &fakeRedditRepo{posts: map[string][]dto.RedditPost{
		"golang": {
			selfPost("t3_a", "Looking for monitoring advice"),
			selfPost("t3_b", "Show off your side project"),
		},
	}}
	svc := newTestScanService(testConfig(), t, oppRepo, redditRepo, notifier, []string{"golang"}, &fakeScanLogRepo{})

	summary, err := svc.Scan(context.Background(), dto.ScanRequest{})
	require.NoError(t, err)

	// Only the matching post is persisted and notified.
	assert.Equal(t, 1, summary.OpportunitiesFound)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, []string{"t3_a"}, notifier.posted)

	stored, err := oppRepo.FindByRedditID(context.Background(), "t3_a")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.SlackMessageTS)

	// A second scan sees the same post again and stays silent.
	summary, err = svc.Scan(context.Background(), dto.ScanRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.OpportunitiesFound)
	assert.Equal(t, 0, summary.NotificationsSent)
	assert.Len(t, notifier.posted, 1)
}

func TestScanService_BelowThresholdPersistedNotNotified(t *testing.T) {
	cfg := testConfig()
	cfg.Scanner.MinRelevanceScore = 0.9
	oppRepo := newFakeOpportunityRepo()
	notifier := &fakeNotifier{}
	redditRepo := &fakeRedditRepo{posts: map[string][]dto.RedditPost{
		"golang": {selfPost("t3_low", "monitoring question")},
	}}
	svc := newTestScanService(cfg, t, oppRepo, redditRepo, notifier, []string{"golang"}, &fakeScanLogRepo{})

	summary, err := svc.Scan(context.Background(), dto.ScanRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.OpportunitiesFound)
	assert.Equal(t, 0, summary.NotificationsSent)
	assert.Empty(t, notifier.posted)

	stored, err := oppRepo.FindByRedditID(context.Background(), "t3_low")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.Empty(t, stored.SlackMessageTS)
}

func TestScanService_OneSubredditFailureDoesNotAbortOthers(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	notifier := &fakeNotifier{}
	redditRepo := &fakeRedditRepo{
		posts: map[string][]dto.RedditPost{
			"golang": {selfPost("t3_ok", "Looking for monitoring advice")},
		},
		errors: map[string]error{"devops": fmt.Errorf("boom")},
	}
	scanLogs := &fakeScanLogRepo{}
	svc := newTestScanService(testConfig(), t, oppRepo, redditRepo, notifier, []string{"golang", "devops"}, scanLogs)

	summary, err := svc.Scan(context.Background(), dto.ScanRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SubredditsScanned)
	assert.Equal(t, 1, summary.NotificationsSent)

	// The failing subreddit still gets a scan log row carrying its errors.
	require.Len(t, scanLogs.logs, 2)
	byName := make(map[string]entity.ScanLog)
	for _, l := range scanLogs.logs {
		byName[l.Subreddit] = l
	}
	assert.NotEmpty(t, byName["devops"].Errors)
	assert.Empty(t, byName["golang"].Errors)
}

func TestScanService_SkipsNSFWLockedAndStale(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	notifier := &fakeNotifier{}

	nsfw := selfPost("t3_nsfw", "monitoring")
	nsfw.NSFW = true
	locked := selfPost("t3_locked", "monitoring")
	locked.Locked = true
	stale := selfPost("t3_stale", "monitoring")
	stale.PostAgeHours = 1000

	redditRepo := &fakeRedditRepo{posts: map[string][]dto.RedditPost{
		"golang": {nsfw, locked, stale},
	}}
	svc := newTestScanService(testConfig(), t, oppRepo, redditRepo, notifier, []string{"golang"}, &fakeScanLogRepo{})

	summary, err := svc.Scan(context.Background(), dto.ScanRequest{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.PostsScanned)
	assert.Equal(t, 0, summary.OpportunitiesFound)
}

func TestScanService_NotificationFailureRecordedAsError(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	notifier := &fakeNotifier{err: fmt.Errorf("slack down")}
	redditRepo := &fakeRedditRepo{posts: map[string][]dto.RedditPost{
		"golang": {selfPost("t3_fail", "Looking for monitoring advice")},
	}}
	scanLogs := &fakeScanLogRepo{}
	svc := newTestScanService(testConfig(), t, oppRepo, redditRepo, notifier, []string{"golang"}, scanLogs)

	summary, err := svc.Scan(context.Background(), dto.ScanRequest{})
	require.NoError(t, err)

	// Row persisted, notification failed, error surfaced in the scan log.
	assert.Equal(t, 1, summary.OpportunitiesFound)
	assert.Equal(t, 0, summary.NotificationsSent)
	require.Len(t, scanLogs.logs, 1)
	assert.NotEmpty(t, scanLogs.logs[0].Errors)
}

func TestScanService_RequestOverridesRegistry(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	notifier := &fakeNotifier{}
	redditRepo := &fakeRedditRepo{posts: map[string][]dto.RedditPost{
		"selfhosted": {selfPost("t3_sh", "Looking for monitoring advice")},
	}}
	svc := newTestScanService(testConfig(), t, oppRepo, redditRepo, notifier, []string{"golang"}, &fakeScanLogRepo{})

	summary, err := svc.Scan(context.Background(), dto.ScanRequest{
		Subreddits: []string{"selfhosted"},
		Queries:    []string{"monitoring"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SubredditsScanned)
	assert.Equal(t, 1, summary.NotificationsSent)
}
