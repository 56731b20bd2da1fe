package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Address())

	// Session config
	assert.Equal(t, "./session_data", cfg.Session.Dir)
	assert.Equal(t, "session_id", cfg.Session.CookieName)
	assert.False(t, cfg.Session.Strict)

	// Model config
	assert.Equal(t, "bedrock", cfg.Model.Provider)
	assert.Equal(t, []string{"nova-pro", "nova-micro", "nova-lite"}, cfg.Model.Keys)
	assert.Equal(t, 5000, cfg.Model.MaxTokens)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                   "9000",
		"HOST":                   "127.0.0.1",
		"CORS_ORIGINS":           "http://a.test,http://b.test",
		"SESSION_DIR":            "/mnt/efs/sessions",
		"SESSION_COMPRESS":       "true",
		"SESSION_STRICT":         "true",
		"SESSION_COOKIE_MAX_AGE": "1h",
		"MODEL_PROVIDER":         "openai",
		"MODEL_KEYS":             "gpt-4o,gpt-4o-mini",
		"MODEL_DEFAULT":          "gpt-4o-mini",
		"MODEL_PREFIX":           "",
		"MODEL_MAX_TOKENS":       "1024",
		"MODEL_TIMEOUT":          "30s",
		"BREAKER_FAILURES":       "2",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"LOG_FILE":               "/var/log/streamchat.log",
		"RATE_LIMIT_RPS":         "500",
		"RATE_LIMIT_BURST":       "1000",
		"RATE_LIMIT_ENABLED":     "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify server config
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)

	// Verify session config
	assert.Equal(t, "/mnt/efs/sessions", cfg.Session.Dir)
	assert.True(t, cfg.Session.Compress)
	assert.True(t, cfg.Session.Strict)
	assert.Equal(t, time.Hour, cfg.Session.CookieMaxAge)

	// Verify model config
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, cfg.Model.Keys)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Default)
	assert.Equal(t, "", cfg.Model.Prefix)
	assert.Equal(t, 1024, cfg.Model.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, uint32(2), cfg.Breaker.Failures)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "/var/log/streamchat.log", cfg.Logging.File)

	// Verify rate limit config
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("MODEL_MAX_TOKENS", "lots")

	_, err := Load()
	assert.Error(t, err)

	// LoadOrDefault falls back instead of failing
	cfg := LoadOrDefault()
	assert.Equal(t, 5000, cfg.Model.MaxTokens)
}
