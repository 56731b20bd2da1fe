package completion

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Stream is a one-shot iterator over the text fragments of a reply.
//
//	for stream.Next() {
//		display(stream.Fragment())
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Empty fragments are never yielded. Once Next returns false the stream is
// finished and cannot be restarted.
type Stream struct {
	reader   EventReader
	provider string
	model    string
	cancel   context.CancelFunc
	metrics  Recorder
	started  time.Time

	fragment string
	text     strings.Builder
	usage    Usage
	err      error
	done     bool
}

func newStream(reader EventReader, provider, model string, cancel context.CancelFunc, metrics Recorder) *Stream {
	return &Stream{
		reader:   reader,
		provider: provider,
		model:    model,
		cancel:   cancel,
		metrics:  metrics,
		started:  time.Now(),
	}
}

// Next advances to the next non-empty fragment
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	for {
		ev, err := s.reader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.finish(nil)
			} else {
				s.finish(&CompletionError{Provider: s.provider, Model: s.model, Err: err})
			}
			return false
		}

		if ev.Usage != nil {
			if ev.Usage.InputTokens > 0 {
				s.usage.InputTokens = ev.Usage.InputTokens
			}
			if ev.Usage.OutputTokens > 0 {
				s.usage.OutputTokens = ev.Usage.OutputTokens
			}
		}
		if ev.Text == "" {
			continue
		}

		s.fragment = ev.Text
		s.text.WriteString(ev.Text)
		if s.metrics != nil {
			s.metrics.RecordFragment(s.provider)
		}
		return true
	}
}

// Fragment returns the fragment produced by the last successful Next
func (s *Stream) Fragment() string {
	return s.fragment
}

// Text returns the concatenation of every fragment yielded so far
func (s *Stream) Text() string {
	return s.text.String()
}

// Usage returns token usage reported by the backend, if any
func (s *Stream) Usage() Usage {
	return s.usage
}

// Err returns the error that ended the stream, or nil on a clean end
func (s *Stream) Err() error {
	return s.err
}

// Close abandons the stream and releases the underlying connection. It is
// safe to call after the stream has ended.
func (s *Stream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.reader.Close()
	s.cancel()
	if s.metrics != nil {
		s.metrics.RecordStreamEnd(s.provider, s.model, time.Since(s.started), context.Canceled)
	}
	return err
}

func (s *Stream) finish(err error) {
	s.done = true
	s.err = err
	s.fragment = ""
	_ = s.reader.Close()
	s.cancel()
	if s.metrics != nil {
		s.metrics.RecordStreamEnd(s.provider, s.model, time.Since(s.started), err)
	}
}
