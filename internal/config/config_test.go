package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8000", cfg.AnswerBaseURL)
	assert.Equal(t, "proxy", cfg.DirectoryMode)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.SlackEnabled())
}

func TestConfig_UpstreamFallbacks(t *testing.T) {
	cfg := &Config{AnswerBaseURL: "http://answers:8000"}
	assert.Equal(t, "http://answers:8000", cfg.DocgenURL())
	assert.Equal(t, "http://answers:8000", cfg.DirectoryURL())

	cfg.DocgenBaseURL = "http://docs:9000"
	cfg.DirectoryBaseURL = "http://dir:9100"
	assert.Equal(t, "http://docs:9000", cfg.DocgenURL())
	assert.Equal(t, "http://dir:9100", cfg.DirectoryURL())
}

func TestConfig_Validate(t *testing.T) {
	base := Config{
		AuthMode:      "none",
		DirectoryMode: "proxy",
		SessionTTL:    time.Minute,
	}

	t.Run("valid defaults", func(t *testing.T) {
		cfg := base
		assert.NoError(t, cfg.Validate())
	})

	t.Run("api-key without key", func(t *testing.T) {
		cfg := base
		cfg.AuthMode = "api-key"
		assert.Error(t, cfg.Validate())
		cfg.APIKey = "secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("jwt without secret", func(t *testing.T) {
		cfg := base
		cfg.AuthMode = "jwt"
		assert.Error(t, cfg.Validate())
		cfg.JWTSecret = "secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("github directory without token", func(t *testing.T) {
		cfg := base
		cfg.DirectoryMode = "github"
		assert.Error(t, cfg.Validate())
		cfg.GitHubToken = "ghp_x"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown auth mode", func(t *testing.T) {
		cfg := base
		cfg.AuthMode = "basic"
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
}
