package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/StreamChat/internal/domain/chat"
	"github.com/GriffinCanCode/StreamChat/internal/domain/session"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/StreamChat/internal/shared/id"
)

const (
	maxMessageSize = 4 * chat.MaxPromptSize
	writeTimeout   = 10 * time.Second
)

// Inbound message types
const (
	TypeHello = "hello"
	TypeChat  = "chat"
	TypeModel = "model"
	TypeReset = "reset"
	TypePing  = "ping"
)

// Outbound message types
const (
	TypeSession        = "session"
	TypeSessionCleared = "session_cleared"
	TypeToken          = "token"
	TypeComplete       = "complete"
	TypeError          = "error"
	TypePong           = "pong"
)

// Message is a client to server frame
type Message struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Model     string `json:"model,omitempty"`
}

// Options configures a Handler
type Options struct {
	// AllowedOrigins lists accepted Origin values; "*" or empty accepts any
	AllowedOrigins []string
	Metrics        *monitoring.Metrics
	Tracer         *tracing.Tracer
	Logger         *zap.Logger
}

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	chat     *chat.Service
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, chatService *chat.Service, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		chat:     chatService,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		logger:   opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) || strings.EqualFold(o, u.Host) {
				return true
			}
		}
		return false
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxMessageSize)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	ctx := c.Request.Context()

	conn := &connection{
		h:      h,
		ws:     ws,
		logger: tracing.Logger(ctx, h.logger),
	}

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				conn.logger.Info("WebSocket read error", zap.Error(err))
			}
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}
		if err := h.dispatch(ctx, conn, msg); err != nil {
			conn.logger.Debug("Closing connection", zap.Error(err))
			return
		}
	}
}

// dispatch handles one inbound frame. A returned error means the socket is
// no longer writable.
func (h *Handler) dispatch(ctx context.Context, conn *connection, msg Message) error {
	var span *tracing.Span
	if h.tracer != nil {
		span, ctx = h.tracer.StartSpan(ctx, "ws."+msg.Type)
		defer func() {
			span.SetTag("session_id", id.ShortSessionID(conn.hint))
			span.Finish()
			h.tracer.Submit(span)
		}()
	}

	var err error
	switch msg.Type {
	case TypeHello:
		err = conn.hello(ctx, msg.SessionID)
	case TypeChat:
		err = conn.chat(ctx, msg.Message, msg.Model)
	case TypeModel:
		err = conn.setModel(ctx, msg.Model)
	case TypeReset:
		err = conn.reset(ctx)
	case TypePing:
		err = conn.send(TypePong, nil)
	default:
		err = conn.sendError("unknown message type: " + msg.Type)
	}
	if span != nil && err != nil {
		span.SetError(err)
	}
	return err
}

// connection is the per-socket state. hint mirrors the session ID the
// browser keeps in local storage, which makes it the socket's ClientStore.
type connection struct {
	h      *Handler
	ws     *websocket.Conn
	logger *zap.Logger
	hint   string
	// writeErr is the first failed write; all later writes are skipped
	writeErr error
}

func (c *connection) Get() (string, bool) {
	return c.hint, c.hint != ""
}

func (c *connection) Set(sessionID string) {
	c.hint = sessionID
}

func (c *connection) Delete() {
	c.hint = ""
	_ = c.send(TypeSessionCleared, nil)
}

func (c *connection) hello(ctx context.Context, sessionID string) error {
	if sessionID != "" {
		c.hint = sessionID
	}
	in, err := c.begin(ctx)
	if err != nil {
		return c.sendError(err.Error())
	}
	isNew := in.IsNew()
	if isNew {
		if err := in.Commit(ctx); err != nil {
			return c.sendError(err.Error())
		}
	}
	return c.sendSession(in, isNew, true)
}

func (c *connection) chat(ctx context.Context, prompt, model string) error {
	if err := c.h.chat.ValidatePrompt(prompt); err != nil {
		return c.sendError(err.Error())
	}
	if model != "" && !c.h.chat.Catalog().Contains(model) {
		return c.sendError("unknown model: " + model)
	}

	previous := c.hint
	in, err := c.begin(ctx)
	if err != nil {
		return c.sendError(err.Error())
	}
	if in.ID() != previous {
		if err := c.sendSession(in, in.IsNew(), false); err != nil {
			return err
		}
	}

	reply, err := c.h.chat.Exchange(ctx, in.State(), in.ID(), model, prompt, func(fragment string) error {
		return c.send(TypeToken, map[string]any{"content": fragment})
	})
	if err != nil {
		if c.writeErr != nil {
			return c.writeErr
		}
		return c.send(TypeError, map[string]any{
			"message": err.Error(),
			"partial": reply.Content,
		})
	}

	if err := in.Commit(ctx); err != nil {
		c.logger.Error("Failed to save session", zap.Error(err),
			zap.String("session_id", id.ShortSessionID(in.ID())))
		return c.sendError("failed to save session")
	}

	return c.send(TypeComplete, map[string]any{
		"content": reply.Content,
		"model":   reply.Model,
		"usage":   reply.Usage,
	})
}

func (c *connection) setModel(ctx context.Context, model string) error {
	previous := c.hint
	in, err := c.begin(ctx)
	if err != nil {
		return c.sendError(err.Error())
	}
	isNew := in.IsNew()
	if err := c.h.chat.SelectModel(in.State(), model); err != nil {
		return c.sendError(err.Error())
	}
	if err := in.Commit(ctx); err != nil {
		return c.sendError(err.Error())
	}
	if in.ID() != previous {
		return c.sendSession(in, isNew, false)
	}
	return c.send(TypeModel, map[string]any{"model_name": model})
}

func (c *connection) reset(ctx context.Context) error {
	if err := c.h.sessions.Reset(ctx, c.hint, c); err != nil {
		return c.sendError(err.Error())
	}
	return c.writeErr
}

func (c *connection) begin(ctx context.Context) (*session.Interaction, error) {
	in, err := c.h.sessions.Begin(ctx, c)
	if err != nil {
		c.logger.Warn("Failed to resolve session", zap.Error(err))
		return nil, err
	}
	return in, nil
}

// sendSession announces the session ID to keep. isNew is passed in because
// Commit clears the interaction's own flag.
func (c *connection) sendSession(in *session.Interaction, isNew, withHistory bool) error {
	state := in.State()
	fields := map[string]any{
		"session_id": in.ID(),
		"short_id":   id.ShortSessionID(in.ID()),
		"is_new":     isNew,
		"model_name": c.h.chat.ModelFor(state),
	}
	if withHistory {
		fields["messages"] = state.Messages
	}
	return c.send(TypeSession, fields)
}

func (c *connection) send(msgType string, fields map[string]any) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["type"] = msgType
	out["timestamp"] = time.Now().Unix()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(out); err != nil {
		c.writeErr = err
		return err
	}
	if c.h.metrics != nil {
		c.h.metrics.RecordWSMessage("out", msgType)
	}
	return nil
}

func (c *connection) sendError(message string) error {
	return c.send(TypeError, map[string]any{"message": message})
}
