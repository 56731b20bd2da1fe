package completion

import (
	"context"
	"io"
	"strings"
	"time"
)

// EchoProvider streams the last user turn back word by word. It needs no
// network access and is used for local development.
type EchoProvider struct {
	// Delay is slept between fragments
	Delay time.Duration
}

// Name returns the provider name
func (p *EchoProvider) Name() string { return "echo" }

// Open returns a reader over the last user message
func (p *EchoProvider) Open(ctx context.Context, req Request) (EventReader, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = req.Messages[i].Content
			break
		}
	}

	return &echoReader{
		ctx:   ctx,
		delay: p.delay(),
		words: strings.SplitAfter(last, " "),
		input: len(req.Messages),
	}, nil
}

func (p *EchoProvider) delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.Delay
}

type echoReader struct {
	ctx   context.Context
	delay time.Duration
	words []string
	input int
	pos   int
	done  bool
}

func (r *echoReader) Recv() (Event, error) {
	if err := r.ctx.Err(); err != nil {
		return Event{}, err
	}
	if r.pos >= len(r.words) {
		if r.done {
			return Event{}, io.EOF
		}
		r.done = true
		return Event{Usage: &Usage{InputTokens: r.input, OutputTokens: len(r.words)}}, nil
	}

	if r.delay > 0 && r.pos > 0 {
		select {
		case <-r.ctx.Done():
			return Event{}, r.ctx.Err()
		case <-time.After(r.delay):
		}
	}

	word := r.words[r.pos]
	r.pos++
	return Event{Text: word}, nil
}

func (r *echoReader) Close() error {
	r.pos = len(r.words)
	r.done = true
	return nil
}
