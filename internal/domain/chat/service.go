// Package chat runs one conversational exchange: append the user turn, stream
// the reply over the full history, append the assistant turn.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/StreamChat/internal/completion"
	"github.com/GriffinCanCode/StreamChat/internal/domain/models"
	"github.com/GriffinCanCode/StreamChat/internal/domain/session"
	"github.com/GriffinCanCode/StreamChat/internal/shared/id"
)

// MaxPromptSize is the largest accepted user message in bytes
const MaxPromptSize = 16 * 1024

var (
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrPromptTooLarge = errors.New("prompt too large")
	ErrInvalidPrompt  = errors.New("prompt is not valid UTF-8")
)

// FragmentSink receives reply fragments as they arrive. Returning an error
// aborts the exchange.
type FragmentSink func(fragment string) error

// Streamer opens completion streams; *completion.Client implements it
type Streamer interface {
	Stream(ctx context.Context, modelID string, history []completion.Message) (*completion.Stream, error)
}

// Reply describes a finished (or aborted) exchange
type Reply struct {
	Content   string           `json:"content"`
	Model     string           `json:"model"`
	ModelID   string           `json:"model_id"`
	Fragments int              `json:"fragments"`
	Usage     completion.Usage `json:"usage"`
	Duration  time.Duration    `json:"duration"`
}

// Service coordinates model selection and streaming for a session state
type Service struct {
	client  Streamer
	catalog *models.Catalog
	logger  *zap.Logger
}

// NewService creates a chat service
func NewService(client Streamer, catalog *models.Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, catalog: catalog, logger: logger}
}

// Catalog returns the model catalog
func (s *Service) Catalog() *models.Catalog {
	return s.catalog
}

// ValidatePrompt checks a user message before it touches any state
func (s *Service) ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(prompt) > MaxPromptSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPromptTooLarge, len(prompt), MaxPromptSize)
	}
	if !utf8.ValidString(prompt) {
		return ErrInvalidPrompt
	}
	return nil
}

// ModelFor returns the model key a state will use. Stored keys that are no
// longer in the catalog fall back to the default.
func (s *Service) ModelFor(state *session.State) string {
	return s.catalog.Select(state.ModelName)
}

// SelectModel records key as the state's model
func (s *Service) SelectModel(state *session.State, key string) error {
	if !s.catalog.Contains(key) {
		return fmt.Errorf("%w: %q", models.ErrUnknownModel, key)
	}
	state.ModelName = key
	return nil
}

// Exchange appends prompt as a user turn, streams the reply over the whole
// history into sink, then appends the assistant turn.
//
// On any failure state is restored to what it was before the call and the
// error is returned together with whatever partial text had arrived. The
// caller must not persist in that case.
func (s *Service) Exchange(ctx context.Context, state *session.State, sessionID, model, prompt string, sink FragmentSink) (Reply, error) {
	if err := s.ValidatePrompt(prompt); err != nil {
		return Reply{}, err
	}

	before := state.Clone()
	rollback := func() { *state = before }

	if model != "" {
		if err := s.SelectModel(state, model); err != nil {
			return Reply{}, err
		}
	}
	key := s.ModelFor(state)
	state.ModelName = key
	modelID, err := s.catalog.Resolve(key)
	if err != nil {
		rollback()
		return Reply{}, err
	}

	state.Append(session.RoleUser, prompt)

	logger := s.logger.With(
		zap.String("session_id", id.ShortSessionID(sessionID)),
		zap.String("model", key),
	)
	start := time.Now()
	reply := Reply{Model: key, ModelID: modelID}

	stream, err := s.client.Stream(ctx, modelID, history(state.Messages))
	if err != nil {
		rollback()
		logger.Warn("Failed to open completion stream", zap.Error(err))
		return reply, err
	}
	defer stream.Close()

	for stream.Next() {
		reply.Fragments++
		if err := sink(stream.Fragment()); err != nil {
			rollback()
			reply.Content = stream.Text()
			reply.Duration = time.Since(start)
			logger.Info("Exchange aborted by sink", zap.Error(err), zap.Int("fragments", reply.Fragments))
			return reply, fmt.Errorf("failed to deliver fragment: %w", err)
		}
	}

	reply.Content = stream.Text()
	reply.Usage = stream.Usage()
	reply.Duration = time.Since(start)

	if err := stream.Err(); err != nil {
		rollback()
		logger.Warn("Completion stream failed",
			zap.Error(err),
			zap.Int("fragments", reply.Fragments),
			zap.Int("partial_bytes", len(reply.Content)))
		return reply, err
	}

	state.Append(session.RoleAssistant, reply.Content)

	logger.Info("Exchange complete",
		zap.Int("turns", len(state.Messages)),
		zap.Int("fragments", reply.Fragments),
		zap.Duration("duration", reply.Duration))
	return reply, nil
}

func history(turns []session.Turn) []completion.Message {
	out := make([]completion.Message, len(turns))
	for i, t := range turns {
		out[i] = completion.Message{Role: string(t.Role), Content: t.Content}
	}
	return out
}
