package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Model     ModelConfig
	Breaker   BreakerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins  []string      `envconfig:"CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// SessionConfig holds session persistence configuration.
type SessionConfig struct {
	Dir          string        `envconfig:"SESSION_DIR" default:"./session_data"`
	Compress     bool          `envconfig:"SESSION_COMPRESS" default:"false"`
	Strict       bool          `envconfig:"SESSION_STRICT" default:"false"`
	CookieName   string        `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`
	CookieMaxAge time.Duration `envconfig:"SESSION_COOKIE_MAX_AGE" default:"720h"`
	CookieSecure bool          `envconfig:"SESSION_COOKIE_SECURE" default:"false"`
}

// ModelConfig holds completion backend configuration.
type ModelConfig struct {
	Provider    string        `envconfig:"MODEL_PROVIDER" default:"bedrock"`
	Default     string        `envconfig:"MODEL_DEFAULT" default:"nova-pro"`
	Keys        []string      `envconfig:"MODEL_KEYS" default:"nova-pro,nova-micro,nova-lite"`
	Prefix      string        `envconfig:"MODEL_PREFIX" default:"amazon."`
	Suffix      string        `envconfig:"MODEL_SUFFIX" default:"-v1:0"`
	MaxTokens   int           `envconfig:"MODEL_MAX_TOKENS" default:"5000"`
	CatalogFile string        `envconfig:"MODEL_CATALOG_FILE"`
	Timeout     time.Duration `envconfig:"MODEL_TIMEOUT" default:"2m"`

	AWSRegion        string `envconfig:"AWS_REGION"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `envconfig:"OPENAI_BASE_URL"`
	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `envconfig:"ANTHROPIC_BASE_URL"`
}

// BreakerConfig holds circuit breaker configuration for the model backend.
type BreakerConfig struct {
	Failures uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	Timeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
	Enabled  bool          `envconfig:"BREAKER_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE"`
	MaxSizeMB   int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	MaxBackups  int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	MaxAgeDays  int    `envconfig:"LOG_MAX_AGE_DAYS" default:"28"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			Dir:          "./session_data",
			CookieName:   "session_id",
			CookieMaxAge: 30 * 24 * time.Hour,
		},
		Model: ModelConfig{
			Provider:  "bedrock",
			Default:   "nova-pro",
			Keys:      []string{"nova-pro", "nova-micro", "nova-lite"},
			Prefix:    "amazon.",
			Suffix:    "-v1:0",
			MaxTokens: 5000,
			Timeout:   2 * time.Minute,
		},
		Breaker: BreakerConfig{
			Failures: 5,
			Timeout:  30 * time.Second,
			Enabled:  true,
		},
		Logging: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
