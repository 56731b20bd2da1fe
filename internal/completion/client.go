package completion

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/resilience"
)

// Recorder receives stream metrics
type Recorder interface {
	RecordStreamStart(provider, model string)
	RecordFragment(provider string)
	RecordStreamEnd(provider, model string, duration time.Duration, err error)
}

// Options configures a Client
type Options struct {
	MaxTokens int
	// Timeout bounds a whole stream, from open to last fragment. Zero means
	// only the caller's context applies.
	Timeout time.Duration
	Breaker *resilience.Breaker
	Metrics Recorder
	Logger  *zap.Logger
}

// Client streams completions from a single provider
type Client struct {
	provider  Provider
	maxTokens int
	timeout   time.Duration
	breaker   *resilience.Breaker
	metrics   Recorder
	logger    *zap.Logger
}

// NewClient creates a completion client
func NewClient(provider Provider, opts Options) *Client {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		provider:  provider,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		breaker:   opts.Breaker,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// Provider returns the backend name
func (c *Client) Provider() string {
	return c.provider.Name()
}

// MaxTokens returns the per-reply token cap
func (c *Client) MaxTokens() int {
	return c.maxTokens
}

// Stream opens a completion over the full history. Failures are reported as
// *CompletionError and are never retried.
func (c *Client) Stream(ctx context.Context, modelID string, history []Message) (*Stream, error) {
	name := c.provider.Name()
	if len(history) == 0 {
		return nil, &CompletionError{Provider: name, Model: modelID, Err: ErrEmptyHistory}
	}

	req := Request{
		Model:     modelID,
		Messages:  append([]Message(nil), history...),
		MaxTokens: c.maxTokens,
	}

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	if c.metrics != nil {
		c.metrics.RecordStreamStart(name, modelID)
	}

	var reader EventReader
	open := func() error {
		var err error
		reader, err = c.provider.Open(ctx, req)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(open)
	} else {
		err = open()
	}
	if err != nil {
		cancel()
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			c.logger.Warn("Completion backend unavailable, failing fast",
				zap.String("provider", name), zap.String("model", modelID))
		}
		cerr := &CompletionError{Provider: name, Model: modelID, Err: err}
		if c.metrics != nil {
			c.metrics.RecordStreamEnd(name, modelID, 0, cerr)
		}
		return nil, cerr
	}

	c.logger.Debug("Completion stream opened",
		zap.String("provider", name),
		zap.String("model", modelID),
		zap.Int("turns", len(history)))

	return newStream(reader, name, modelID, cancel, c.metrics), nil
}
