package config

import (
	"time"

	"reddit-lead-scout/pkg/config"
)

// Reddit holds the configuration for the Reddit search client.
type Reddit struct {
	BaseURL             string        `mapstructure:"base_url"`
	UserAgent           string        `mapstructure:"user_agent"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryBaseDelay      time.Duration `mapstructure:"retry_base_delay"`
	SearchCacheTTL      time.Duration `mapstructure:"search_cache_ttl"`
	RSSFallback         bool          `mapstructure:"rss_fallback"`
	FetchLinkContent    bool          `mapstructure:"fetch_link_content"`
}

// Scoring holds the keyword scorer tunables. Saturation is the weight sum at
// which the normalized score reaches 1.0.
type Scoring struct {
	Saturation      float64 `mapstructure:"saturation"`
	HighThreshold   float64 `mapstructure:"high_threshold"`
	MediumThreshold float64 `mapstructure:"medium_threshold"`
}

// Scanner holds scan orchestration configuration.
type Scanner struct {
	Cron                   string        `mapstructure:"cron"`
	MinRelevanceScore      float64       `mapstructure:"min_relevance_score"`
	MaxPostsPerQuery       int           `mapstructure:"max_posts_per_query"`
	MaxQueriesPerSubreddit int           `mapstructure:"max_queries_per_subreddit"`
	MaxConcurrentScans     int           `mapstructure:"max_concurrent_scans"`
	PostMaxAgeHours        float64       `mapstructure:"post_max_age_hours"`
	ExpireAfter            time.Duration `mapstructure:"expire_after"`
	Scoring                Scoring       `mapstructure:"scoring"`
}

// Digest holds the digest aggregator configuration.
type Digest struct {
	Cron       string `mapstructure:"cron"`
	WindowDays int    `mapstructure:"window_days"`
	TopN       int    `mapstructure:"top_n"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	Enabled             bool   `mapstructure:"enabled"`
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Telegram holds configuration for the optional Telegram digest mirror.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the scanner service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	API      config.API      `mapstructure:"api"`
	Slack    config.Slack    `mapstructure:"slack"`
	Reddit   Reddit          `mapstructure:"reddit"`
	Scanner  Scanner         `mapstructure:"scanner"`
	Digest   Digest          `mapstructure:"digest"`
	Gemini   Gemini          `mapstructure:"gemini"`
	Telegram Telegram        `mapstructure:"telegram"`
}

// Load loads the scanner configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
