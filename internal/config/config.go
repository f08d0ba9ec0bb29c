package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port             string        `env:"PORT" envDefault:"5555"`
	DatabaseURL      string        `env:"DATABASE_URL" envDefault:"sqlite://app.db"`
	SecretKey        string        `env:"SECRET_KEY"`
	Debug            bool          `env:"APP_DEBUG"`
	CorsOrigins      []string      `env:"CORS_ORIGINS" envSeparator:","`
	LogDir           string        `env:"LOG_DIR" envDefault:"storage/logs"`
	LogRetentionDays int           `env:"LOG_RETENTION_DAYS" envDefault:"7"`
	StatusDiskPath   string        `env:"STATUS_DISK_PATH" envDefault:"."`
	Feed             FeedConfig    `envPrefix:"FEED_"`
	FetchDelay       time.Duration `env:"FETCH_DELAY" envDefault:"1s"`
	FastFetchDelay   time.Duration `env:"FAST_FETCH_DELAY" envDefault:"100ms"`
	Archivist        Archivist     `envPrefix:"ARCHIVIST_"`
	KeywordsFile     string        `env:"KEYWORDS_FILE"`
}

// FeedConfig points the importer at the "on this day" events feed.
type FeedConfig struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://en.wikipedia.org/api/rest_v1"`
	UserAgent string        `env:"USER_AGENT" envDefault:"TechTimeCapsule/1.0 (dev project; contact@example.com)"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Archivist is the system account that owns imported events.
type Archivist struct {
	Username string `env:"USERNAME" envDefault:"Archivist"`
	Password string `env:"PASSWORD" envDefault:"a_very_strong_password"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LogRetentionDays < 1 || cfg.LogRetentionDays > 7 {
		cfg.LogRetentionDays = 7
	}
	if cfg.FastFetchDelay <= 0 {
		cfg.FastFetchDelay = 100 * time.Millisecond
	}
	if cfg.FetchDelay < cfg.FastFetchDelay {
		cfg.FetchDelay = cfg.FastFetchDelay
	}
	return cfg, nil
}

// RequireSecret fails when SECRET_KEY is unset. Only the HTTP server signs cookies,
// so the CLI does not call it.
func (c Config) RequireSecret() error {
	if c.SecretKey == "" {
		return fmt.Errorf("missing env var: SECRET_KEY")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
