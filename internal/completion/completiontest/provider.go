// Package completiontest provides scripted completion providers for tests.
package completiontest

import (
	"context"
	"io"
	"sync"

	"github.com/GriffinCanCode/StreamChat/internal/completion"
)

// Provider replays a fixed list of fragments, optionally failing to open or
// failing after the fragments have been sent.
type Provider struct {
	Fragments []string
	// OpenErr is returned by Open
	OpenErr error
	// StreamErr is returned by Recv after the last fragment instead of io.EOF
	StreamErr error
	// Block makes Recv wait for context cancellation after the fragments
	Block bool

	mu       sync.Mutex
	requests []completion.Request
}

// Name returns the provider name
func (p *Provider) Name() string { return "scripted" }

// Open records the request and returns a reader over Fragments
func (p *Provider) Open(ctx context.Context, req completion.Request) (completion.EventReader, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	return &reader{ctx: ctx, p: p}, nil
}

// Requests returns every request seen by Open
func (p *Provider) Requests() []completion.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]completion.Request(nil), p.requests...)
}

// LastRequest returns the most recent request
func (p *Provider) LastRequest() (completion.Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return completion.Request{}, false
	}
	return p.requests[len(p.requests)-1], true
}

type reader struct {
	ctx    context.Context
	p      *Provider
	pos    int
	closed bool
}

func (r *reader) Recv() (completion.Event, error) {
	if r.closed {
		return completion.Event{}, io.EOF
	}
	if err := r.ctx.Err(); err != nil {
		return completion.Event{}, err
	}
	if r.pos < len(r.p.Fragments) {
		f := r.p.Fragments[r.pos]
		r.pos++
		return completion.Event{Text: f}, nil
	}
	if r.p.StreamErr != nil {
		return completion.Event{}, r.p.StreamErr
	}
	if r.p.Block {
		<-r.ctx.Done()
		return completion.Event{}, r.ctx.Err()
	}
	return completion.Event{}, io.EOF
}

func (r *reader) Close() error {
	r.closed = true
	return nil
}
