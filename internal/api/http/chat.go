package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/StreamChat/internal/shared/id"
)

// SSE event names sent by Chat
const (
	eventSession = "session"
	eventToken   = "token"
	eventDone    = "done"
	eventError   = "error"
)

type chatRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// Chat runs one exchange and streams the reply as server-sent events. The
// session is saved only after the whole reply has arrived.
func (h *Handlers) Chat(c *gin.Context) {
	var req chatRequest
	if err := h.bind(c, &req); err != nil {
		return
	}
	if err := h.chat.ValidatePrompt(req.Prompt); err != nil {
		h.fail(c, err)
		return
	}
	if req.Model != "" && !h.chat.Catalog().Contains(req.Model) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown model: " + req.Model})
		return
	}

	ctx := c.Request.Context()
	logger := h.log(c)

	// Resolving sets the cookie, which has to happen before the first event
	in, err := h.sessions.Begin(ctx, newCookieStore(c, h.cookie))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	h.event(c, eventSession, gin.H{
		"session_id": in.ID(),
		"short_id":   id.ShortSessionID(in.ID()),
		"is_new":     in.IsNew(),
	})

	reply, err := h.chat.Exchange(ctx, in.State(), in.ID(), req.Model, req.Prompt, func(fragment string) error {
		h.event(c, eventToken, gin.H{"content": fragment})
		return ctx.Err()
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("Client went away during exchange",
				zap.String("session_id", id.ShortSessionID(in.ID())))
			return
		}
		_ = c.Error(err)
		h.event(c, eventError, gin.H{
			"error":   err.Error(),
			"partial": reply.Content,
		})
		return
	}

	// The reply is complete; a disconnect now must not lose it
	if err := in.Commit(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Failed to save session", zap.Error(err),
			zap.String("session_id", id.ShortSessionID(in.ID())))
		_ = c.Error(err)
		h.event(c, eventError, gin.H{"error": "failed to save session"})
		return
	}

	h.event(c, eventDone, gin.H{
		"content":   reply.Content,
		"model":     reply.Model,
		"fragments": reply.Fragments,
		"usage":     reply.Usage,
		"turns":     len(in.State().Messages),
	})
}

func (h *Handlers) event(c *gin.Context, name string, data any) {
	c.SSEvent(name, data)
	c.Writer.Flush()
}
