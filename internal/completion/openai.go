package completion

import (
	"context"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openaiChunkStream is satisfied by *ssestream.Stream[openai.ChatCompletionChunk]
type openaiChunkStream interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

// OpenAIProvider streams from any OpenAI-compatible chat completions endpoint
type OpenAIProvider struct {
	client openai.Client
	open   func(ctx context.Context, params openai.ChatCompletionNewParams) openaiChunkStream
}

// NewOpenAIProvider creates a provider. baseURL may be empty for the public API.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	p := &OpenAIProvider{client: openai.NewClient(opts...)}
	p.open = func(ctx context.Context, params openai.ChatCompletionNewParams) openaiChunkStream {
		return p.client.Chat.Completions.NewStreaming(ctx, params)
	}
	return p
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string { return "openai" }

// Open starts a streaming chat completion. The first chunk is read eagerly so
// that connection and auth failures surface here rather than mid-stream.
func (p *OpenAIProvider) Open(ctx context.Context, req Request) (EventReader, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	stream := p.open(ctx, params)
	r := &openaiReader{stream: stream}
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

type openaiReader struct {
	stream openaiChunkStream
	primed bool
	eof    bool
}

func (r *openaiReader) Recv() (Event, error) {
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

	chunk := r.stream.Current()
	var ev Event
	if len(chunk.Choices) > 0 {
		ev.Text = chunk.Choices[0].Delta.Content
	}
	if chunk.Usage.TotalTokens > 0 {
		ev.Usage = &Usage{
			InputTokens:  int(chunk.Usage.PromptTokens),
			OutputTokens: int(chunk.Usage.CompletionTokens),
		}
	}
	return ev, nil
}

func (r *openaiReader) Close() error {
	return r.stream.Close()
}
