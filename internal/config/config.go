package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Upstream answer engine (required)
	AnswerBaseURL string `envconfig:"ANSWER_BASE_URL" default:"http://localhost:8000"`

	// Document renderer. Defaults to the answer engine's host when empty.
	DocgenBaseURL string `envconfig:"DOCGEN_BASE_URL"`

	// Repository directory: "proxy" hits the answer engine's listing
	// endpoint, "github" talks to the GitHub API directly.
	DirectoryMode    string `envconfig:"DIRECTORY_MODE" default:"proxy"`
	DirectoryBaseURL string `envconfig:"DIRECTORY_BASE_URL"`
	GitHubToken      string `envconfig:"GITHUB_TOKEN"`

	// Sessions
	SessionTTL             time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SessionCleanupInterval time.Duration `envconfig:"SESSION_CLEANUP_INTERVAL" default:"5m"`

	// API surface
	AuthMode       string `envconfig:"AUTH_MODE" default:"none"` // "none", "api-key", or "jwt"
	APIKey         string `envconfig:"API_KEY"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"100"`

	// Slack (optional — completion notices are skipped when unset)
	SlackBotToken string `envconfig:"KTAI_SLACK_BOT_TOKEN"`
	SlackChannel  string `envconfig:"KTAI_SLACK_CHANNEL"`

	// Optional YAML file with preconfigured exploration contexts.
	PresetsPath string `envconfig:"PRESETS_PATH"`
}

// DocgenURL returns the document renderer base URL, falling back to the
// answer engine when no dedicated one is configured.
func (c *Config) DocgenURL() string {
	if c.DocgenBaseURL != "" {
		return c.DocgenBaseURL
	}
	return c.AnswerBaseURL
}

// DirectoryURL returns the proxy directory base URL, falling back to the
// answer engine when no dedicated one is configured.
func (c *Config) DirectoryURL() string {
	if c.DirectoryBaseURL != "" {
		return c.DirectoryBaseURL
	}
	return c.AnswerBaseURL
}

// SlackEnabled returns true if Slack notifications are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AuthMode) {
	case "none":
	case "api-key":
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=api-key requires API_KEY")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q (expected none, api-key, or jwt)", c.AuthMode)
	}

	switch strings.ToLower(c.DirectoryMode) {
	case "proxy":
	case "github":
		if c.GitHubToken == "" {
			return fmt.Errorf("DIRECTORY_MODE=github requires GITHUB_TOKEN")
		}
	default:
		return fmt.Errorf("unknown DIRECTORY_MODE %q (expected proxy or github)", c.DirectoryMode)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
