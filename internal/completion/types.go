package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/resilience"
)

// DefaultMaxTokens caps the length of each generated reply
const DefaultMaxTokens = 5000

// Roles understood by every provider
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation sent to the model
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single streaming completion call
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// Usage reports token accounting when the backend provides it
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Event is one decoded item of a provider stream. Text may be empty for
// events that only carry usage or bookkeeping.
type Event struct {
	Text  string
	Usage *Usage
}

// EventReader yields provider events in order. Recv returns io.EOF after the
// last event.
type EventReader interface {
	Recv() (Event, error)
	Close() error
}

// Provider opens streams against one model backend
type Provider interface {
	Name() string
	Open(ctx context.Context, req Request) (EventReader, error)
}

var (
	// ErrCircuitOpen is returned without contacting the backend after
	// repeated failures
	ErrCircuitOpen = resilience.ErrCircuitOpen

	// ErrEmptyHistory is returned when a stream is requested with no turns
	ErrEmptyHistory = errors.New("conversation history is empty")
)

// CompletionError wraps any failure of the remote completion call
type CompletionError struct {
	Provider string
	Model    string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (%s %s): %v", e.Provider, e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// IsCompletionError reports whether err is or wraps a CompletionError
func IsCompletionError(err error) bool {
	var ce *CompletionError
	return errors.As(err, &ce)
}
