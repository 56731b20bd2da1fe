package completion

import (
	"context"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicEventStream is satisfied by *ssestream.Stream[anthropic.MessageStreamEventUnion]
type anthropicEventStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

// AnthropicProvider streams from the Anthropic Messages API
type AnthropicProvider struct {
	client anthropic.Client
	open   func(ctx context.Context, params anthropic.MessageNewParams) anthropicEventStream
}

// NewAnthropicProvider creates a provider. baseURL may be empty.
func NewAnthropicProvider(apiKey, baseURL string) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	p := &AnthropicProvider{client: anthropic.NewClient(opts...)}
	p.open = func(ctx context.Context, params anthropic.MessageNewParams) anthropicEventStream {
		return p.client.Messages.NewStreaming(ctx, params)
	}
	return p
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Open starts a streaming message. Like the OpenAI provider it reads the
// first event before returning.
func (p *AnthropicProvider) Open(ctx context.Context, req Request) (EventReader, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	stream := p.open(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  messages,
	})

	r := &anthropicReader{stream: stream}
	if !stream.Next() {
		err := stream.Err()
		if err == nil {
			r.eof = true
			return r, nil
		}
		stream.Close()
		return nil, err
	}
	r.primed = true
	return r, nil
}

type anthropicReader struct {
	stream anthropicEventStream
	primed bool
	eof    bool
}

func (r *anthropicReader) Recv() (Event, error) {
	if r.eof {
		return Event{}, io.EOF
	}
	if r.primed {
		r.primed = false
	} else if !r.stream.Next() {
		if err := r.stream.Err(); err != nil {
			return Event{}, err
		}
		return Event{}, io.EOF
	}

	switch ev := r.stream.Current().AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		return Event{Text: ev.Delta.Text}, nil
	case anthropic.MessageStartEvent:
		return Event{Usage: &Usage{InputTokens: int(ev.Message.Usage.InputTokens)}}, nil
	case anthropic.MessageDeltaEvent:
		return Event{Usage: &Usage{OutputTokens: int(ev.Usage.OutputTokens)}}, nil
	}
	return Event{}, nil
}

func (r *anthropicReader) Close() error {
	return r.stream.Close()
}
