package config

import (
	"time"

	"reddit-lead-scout/pkg/config"
)

// Review holds the review webhook tunables. DedupTTL bounds how long a
// processed interaction event is remembered for replay suppression.
type Review struct {
	DedupTTL time.Duration `mapstructure:"dedup_ttl"`
}

// Config holds the full configuration for the review service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	Slack    config.Slack    `mapstructure:"slack"`
	Review   Review          `mapstructure:"review"`
}

// Load loads the review configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
