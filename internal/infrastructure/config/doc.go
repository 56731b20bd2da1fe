// Package config provides 12-factor configuration management for the chat backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP listener, CORS origins, shutdown grace period
//   - Session: storage directory, compression, strict decoding, cookie settings
//   - Model: provider, model catalog, token limit, backend credentials
//   - Breaker: circuit breaker around the model backend
//   - Logging: log level, output format, rotating file sink
//   - RateLimit: per-IP rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Address())
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS, SHUTDOWN_TIMEOUT
//   - SESSION_DIR, SESSION_COMPRESS, SESSION_STRICT, SESSION_COOKIE_*
//   - MODEL_PROVIDER, MODEL_DEFAULT, MODEL_KEYS, MODEL_PREFIX, MODEL_SUFFIX
//   - MODEL_MAX_TOKENS, MODEL_CATALOG_FILE, MODEL_TIMEOUT
//   - AWS_REGION, OPENAI_API_KEY, OPENAI_BASE_URL, ANTHROPIC_API_KEY
//   - BREAKER_FAILURES, BREAKER_TIMEOUT, BREAKER_ENABLED
//   - LOG_LEVEL, LOG_DEV, LOG_FILE, LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
