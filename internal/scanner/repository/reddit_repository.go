package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reddit-lead-scout/internal/scanner/config"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/logger"
	"reddit-lead-scout/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ErrForbidden is returned when Reddit blocks the JSON endpoint.
var ErrForbidden = errors.New("reddit: request forbidden")

// RedditRepository defines the interface for searching Reddit's public API.
type RedditRepository interface {
	Search(ctx context.Context, subreddit, query string, limit int) ([]dto.RedditPost, error)
	FetchLinkContent(ctx context.Context, pageURL string) (string, error)
}

type redditRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	searchCache    *gocache.Cache
	feedParser     *gofeed.Parser
}

// NewRedditRepository creates a rate limited Reddit search client. Identical
// subreddit+query searches within the cache TTL are served from memory so a
// manual scan fired right after the scheduled one does not burn quota.
func NewRedditRepository(cfg *config.Config, log *logger.Logger) RedditRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Reddit.MaxRequestPerMinute)
	httpClient := &http.Client{Timeout: cfg.Reddit.RequestTimeout}

	feedParser := gofeed.NewParser()
	feedParser.Client = httpClient
	feedParser.UserAgent = cfg.Reddit.UserAgent

	return &redditRepository{
		cfg:            cfg,
		log:            log,
		httpClient:     httpClient,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		searchCache:    gocache.New(cfg.Reddit.SearchCacheTTL, 2*cfg.Reddit.SearchCacheTTL),
		feedParser:     feedParser,
	}
}

// Search runs a restricted search within one subreddit and returns raw
// candidates. When the JSON endpoint is blocked and the RSS fallback is
// enabled, results come from the search feed instead (without vote and
// comment counts, which the feed does not carry).
func (r *redditRepository) Search(ctx context.Context, subreddit, query string, limit int) ([]dto.RedditPost, error) {
	cacheKey := fmt.Sprintf("search:%s:%s:%d", subreddit, query, limit)
	if cached, ok := r.searchCache.Get(cacheKey); ok {
		return cached.([]dto.RedditPost), nil
	}

	posts, err := r.searchJSON(ctx, subreddit, query, limit)
	if errors.Is(err, ErrForbidden) && r.cfg.Reddit.RSSFallback {
		r.log.WarnContext(ctx, "Reddit JSON endpoint blocked, falling back to RSS",
			logger.StringField("subreddit", subreddit),
			logger.StringField("query", query),
		)
		posts, err = r.searchRSS(ctx, subreddit, query, limit)
	}
	if err != nil {
		return nil, err
	}

	r.searchCache.Set(cacheKey, posts, gocache.DefaultExpiration)
	return posts, nil
}

func (r *redditRepository) searchJSON(ctx context.Context, subreddit, query string, limit int) ([]dto.RedditPost, error) {
	searchURL := fmt.Sprintf("%s/r/%s/search.json?%s", r.cfg.Reddit.BaseURL, subreddit, url.Values{
		"q":           {query},
		"restrict_sr": {"1"},
		"sort":        {"new"},
		"t":           {"week"},
		"limit":       {fmt.Sprintf("%d", limit)},
	}.Encode())

	body, err := r.sendRequest(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var listing dto.RedditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode reddit listing: %w", err)
	}

	now := time.Now()
	posts := make([]dto.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		if d.Archived {
			continue
		}
		redditID := d.Name
		if redditID == "" {
			redditID = "t3_" + d.ID
		}
		posts = append(posts, dto.RedditPost{
			RedditID:     redditID,
			Subreddit:    d.Subreddit,
			PostType:     "post",
			Title:        utils.CleanToValidUTF8(d.Title),
			Body:         utils.CleanToValidUTF8(d.Selftext),
			Author:       d.Author,
			Permalink:    r.cfg.Reddit.BaseURL + d.Permalink,
			URL:          d.URL,
			Upvotes:      d.Score,
			CommentCount: d.NumComments,
			PostAgeHours: now.Sub(time.Unix(int64(d.CreatedUTC), 0)).Hours(),
			NSFW:         d.Over18,
			Locked:       d.Locked,
			IsSelf:       d.IsSelf,
		})
	}

	r.log.DebugContext(ctx, "Reddit search completed",
		logger.StringField("subreddit", subreddit),
		logger.StringField("query", query),
		logger.IntField("posts", len(posts)),
	)
	return posts, nil
}

// searchRSS queries the search feed. Feed entries carry no score or comment
// counts, so those stay zero and engagement is judged later from the stored row.
func (r *redditRepository) searchRSS(ctx context.Context, subreddit, query string, limit int) ([]dto.RedditPost, error) {
	feedURL := fmt.Sprintf("%s/r/%s/search.rss?%s", r.cfg.Reddit.BaseURL, subreddit, url.Values{
		"q":           {query},
		"restrict_sr": {"1"},
		"sort":        {"new"},
		"limit":       {fmt.Sprintf("%d", limit)},
	}.Encode())

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := r.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reddit search feed: %w", err)
	}

	now := time.Now()
	posts := make([]dto.RedditPost, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(posts) >= limit {
			break
		}
		ageHours := 0.0
		if item.PublishedParsed != nil {
			ageHours = now.Sub(*item.PublishedParsed).Hours()
		}
		author := ""
		if item.Author != nil {
			author = strings.TrimPrefix(item.Author.Name, "/u/")
		}
		posts = append(posts, dto.RedditPost{
			RedditID:     item.GUID,
			Subreddit:    subreddit,
			PostType:     "post",
			Title:        utils.CleanToValidUTF8(item.Title),
			Body:         flattenHTML(item.Content),
			Author:       author,
			Permalink:    item.Link,
			URL:          item.Link,
			PostAgeHours: ageHours,
			IsSelf:       true,
		})
	}
	return posts, nil
}

// FetchLinkContent extracts readable text from an external link post.
func (r *redditRepository) FetchLinkContent(ctx context.Context, pageURL string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.cfg.Reddit.UserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch link content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch link content, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read link content: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse link content: %w", err)
	}
	return flattenHTML(doc.Content()), nil
}

func (r *redditRepository) sendRequest(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.Reddit.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.Reddit.RetryBaseDelay * time.Duration(1<<(attempt-1))
			r.log.WarnContext(ctx, "Retrying reddit request",
				logger.StringField("url", requestURL),
				logger.IntField("attempt", attempt),
				logger.DurationField("delay", delay),
				logger.ErrorField(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := r.doRequest(ctx, requestURL)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("reddit request failed after %d retries: %w", r.cfg.Reddit.MaxRetries, lastErr)
}

func (r *redditRepository) doRequest(ctx context.Context, requestURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", r.cfg.Reddit.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrForbidden
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("reddit returned status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("reddit returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

// flattenHTML strips markup from feed entry bodies.
func flattenHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return utils.CleanToValidUTF8(strings.TrimSpace(doc.Text()))
}
