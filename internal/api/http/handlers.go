package http

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/StreamChat/internal/completion"
	"github.com/GriffinCanCode/StreamChat/internal/domain/chat"
	"github.com/GriffinCanCode/StreamChat/internal/domain/models"
	"github.com/GriffinCanCode/StreamChat/internal/domain/session"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/StreamChat/internal/shared/id"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// maxBodySize caps JSON request bodies; prompts themselves are capped lower
const maxBodySize = 4 * chat.MaxPromptSize

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *session.Manager
	chat     *chat.Service
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	cookie   CookieConfig
	provider string
	hostname string
	started  time.Time
}

// Options configures a handler set
type Options struct {
	Cookie   CookieConfig
	Provider string
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(sessions *session.Manager, chatService *chat.Service, opts Options) *Handlers {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cookie.Name == "" {
		opts.Cookie = DefaultCookieConfig()
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &Handlers{
		sessions: sessions,
		chat:     chatService,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		cookie:   opts.Cookie,
		provider: opts.Provider,
		hostname: hostname,
		started:  time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/models", h.Models)
	api.GET("/session", h.GetSession)
	api.PUT("/session/model", h.SetModel)
	api.DELETE("/session", h.ResetSession)
	api.POST("/chat", h.Chat)
}

// Root handles the basic liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "online",
		"service":  "StreamChat",
		"version":  Version,
		"hostname": h.hostname,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	count, err := h.sessions.Count(c.Request.Context())
	if err != nil {
		status = "degraded"
		h.log(c).Warn("Failed to count sessions", zap.Error(err))
	}

	body := gin.H{
		"status":   status,
		"hostname": h.hostname,
		"provider": h.provider,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"sessions": gin.H{
			"count": count,
			"stats": h.sessions.Stats(),
		},
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// Models lists the selectable models
func (h *Handlers) Models(c *gin.Context) {
	catalog := h.chat.Catalog()
	entries := catalog.Entries()
	list := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		list = append(list, gin.H{
			"key":  e.Key,
			"name": catalog.DisplayName(e.Key),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"models":  list,
		"default": catalog.Default(),
	})
}

// GetSession resolves the caller's session and returns its history. A new
// session is saved right away so the cookie points at a real file.
func (h *Handlers) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	in, err := h.sessions.Begin(ctx, newCookieStore(c, h.cookie))
	if err != nil {
		h.fail(c, err)
		return
	}
	isNew := in.IsNew()
	if isNew {
		if err := in.Commit(ctx); err != nil {
			h.fail(c, err)
			return
		}
	}

	state := in.State()
	c.JSON(http.StatusOK, gin.H{
		"session_id": in.ID(),
		"short_id":   id.ShortSessionID(in.ID()),
		"is_new":     isNew,
		"model_name": h.chat.ModelFor(state),
		"messages":   state.Messages,
	})
}

type modelRequest struct {
	Model string `json:"model" binding:"required"`
}

// SetModel changes the model used for the caller's next turns
func (h *Handlers) SetModel(c *gin.Context) {
	var req modelRequest
	if err := h.bind(c, &req); err != nil {
		return
	}

	ctx := c.Request.Context()
	in, err := h.sessions.Begin(ctx, newCookieStore(c, h.cookie))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.chat.SelectModel(in.State(), req.Model); err != nil {
		h.fail(c, err)
		return
	}
	if err := in.Commit(ctx); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": in.ID(),
		"model_name": req.Model,
	})
}

// ResetSession deletes the caller's session and expires the cookie
func (h *Handlers) ResetSession(c *gin.Context) {
	store := newCookieStore(c, h.cookie)
	hint, _ := store.Get()

	if err := h.sessions.Reset(c.Request.Context(), hint, store); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *Handlers) bind(c *gin.Context, v any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return err
	}
	return nil
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log(c).Error("Request failed", zap.Error(err), zap.Int("status", status))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) log(c *gin.Context) *zap.Logger {
	return tracing.Logger(c.Request.Context(), h.logger)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmptyPrompt),
		errors.Is(err, chat.ErrInvalidPrompt),
		errors.Is(err, models.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrPromptTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, completion.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case session.IsCorrupt(err):
		return http.StatusConflict
	case completion.IsCompletionError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
