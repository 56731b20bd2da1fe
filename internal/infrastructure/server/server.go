package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/StreamChat/internal/api/http"
	"github.com/GriffinCanCode/StreamChat/internal/api/middleware"
	"github.com/GriffinCanCode/StreamChat/internal/api/ws"
	"github.com/GriffinCanCode/StreamChat/internal/completion"
	"github.com/GriffinCanCode/StreamChat/internal/domain/chat"
	"github.com/GriffinCanCode/StreamChat/internal/domain/models"
	"github.com/GriffinCanCode/StreamChat/internal/domain/session"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/config"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/logging"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	store    *session.FileStore
	sessions *session.Manager
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// newFileStore is replaced in tests to observe the store's lifecycle.
var newFileStore = session.NewFileStore

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing StreamChat server",
		zap.String("addr", cfg.Server.Address()),
		zap.String("provider", cfg.Model.Provider),
		zap.String("session_dir", cfg.Session.Dir),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("streamchat", logger.Logger)

	store, err := newFileStore(cfg.Session.Dir, session.FileStoreOptions{
		Compress: cfg.Session.Compress,
	})
	if err != nil {
		tracer.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	sessions := session.NewManager(store, logger.Logger).
		WithMetrics(metrics).
		WithStrict(cfg.Session.Strict)

	catalog, err := buildCatalog(cfg.Model)
	if err != nil {
		_ = store.Close()
		tracer.Close()
		_ = logger.Close()
		return nil, err
	}
	logger.Info("Model catalog loaded",
		zap.Strings("models", catalog.Keys()),
		zap.String("default", catalog.Default()))

	provider, err := buildProvider(context.Background(), cfg.Model)
	if err != nil {
		_ = store.Close()
		tracer.Close()
		_ = logger.Close()
		return nil, err
	}

	var breaker *resilience.Breaker
	if cfg.Breaker.Enabled {
		breaker = resilience.New(provider.Name(), resilience.Settings{
			MaxFailures: cfg.Breaker.Failures,
			Timeout:     cfg.Breaker.Timeout,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Completion circuit breaker changed state",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		})
	}

	client := completion.NewClient(provider, completion.Options{
		MaxTokens: cfg.Model.MaxTokens,
		Timeout:   cfg.Model.Timeout,
		Breaker:   breaker,
		Metrics:   metrics,
		Logger:    logger.Logger,
	})
	chatService := chat.NewService(client, catalog, logger.Logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}
	// Browsers reject credentialed responses with a wildcard origin
	if containsWildcard(corsConfig.AllowOrigins) {
		corsConfig.AllowCredentials = false
	}
	router.Use(middleware.CORS(corsConfig))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(sessions, chatService, apihttp.Options{
		Cookie: apihttp.CookieConfig{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.CookieMaxAge,
			Secure: cfg.Session.CookieSecure,
		},
		Provider: provider.Name(),
		Metrics:  metrics,
		Logger:   logger.Logger,
	})
	handlers.Register(router)

	wsHandler := ws.NewHandler(sessions, chatService, ws.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metrics,
		Tracer:         tracer,
		Logger:         logger.Logger,
	})
	router.GET("/ws", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.Server.Address(),
			Handler: router,
		},
		store:    store,
		sessions: sessions,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it is shut down
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Graceful shutdown incomplete", zap.Error(err))
	}
	return errors.Join(err, s.Close())
}

// Close releases resources without waiting for requests
func (s *Server) Close() error {
	s.tracer.Close()

	var errs []error
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close session store", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close session store: %w", err))
	}
	if err := s.logger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func buildCatalog(cfg config.ModelConfig) (*models.Catalog, error) {
	if cfg.CatalogFile != "" {
		catalog, err := models.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load model catalog: %w", err)
		}
		return catalog, nil
	}
	catalog, err := models.New(models.SpecFromKeys(cfg.Keys, cfg.Default, cfg.Prefix, cfg.Suffix))
	if err != nil {
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}
	return catalog, nil
}

func buildProvider(ctx context.Context, cfg config.ModelConfig) (completion.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "bedrock", "":
		p, err := completion.NewBedrockProvider(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to configure bedrock: %w", err)
		}
		return p, nil
	case "openai":
		return completion.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case "anthropic":
		return completion.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL), nil
	case "echo":
		return &completion.EchoProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
