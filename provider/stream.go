package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"orby/model"
)

// Stream is a finite, forward-only sequence of response fragments produced
// by one Chat call. It is consumed once and cannot be restarted.
//
//	s := provider.NewStream(ctx, p, req)
//	defer s.Close()
//	for s.Next() {
//	    fmt.Print(s.Current())
//	}
//	if err := s.Err(); err != nil { ... }
//
// The producer blocks while one fragment is waiting to be read.
type Stream struct {
	ch     chan string
	cancel context.CancelFunc

	current   string
	err       error
	finished  bool
	closed    bool
	abandoned bool
}

// NewStream starts a streaming request on p.
func NewStream(ctx context.Context, p model.Provider, req model.ChatRequest) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	return startStream(ctx, cancel, p, req)
}

// NewStreamWithTimeout is NewStream with an overall deadline. A timeout of
// zero means none.
func NewStreamWithTimeout(ctx context.Context, p model.Provider, req model.ChatRequest, timeout time.Duration) *Stream {
	if timeout <= 0 {
		return NewStream(ctx, p, req)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return startStream(ctx, cancel, p, req)
}

func startStream(ctx context.Context, cancel context.CancelFunc, p model.Provider, req model.ChatRequest) *Stream {
	s := &Stream{
		ch:     make(chan string, 1),
		cancel: cancel,
	}

	go func() {
		defer close(s.ch)
		s.err = p.Chat(ctx, req, func(chunk string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case s.ch <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return s
}

// Next advances to the next fragment. It returns false when the response is
// complete, the request failed, or the stream was closed.
func (s *Stream) Next() bool {
	if s.finished || s.closed {
		return false
	}
	chunk, ok := <-s.ch
	if !ok {
		s.finished = true
		s.cancel()
		return false
	}
	s.current = chunk
	return true
}

func (s *Stream) Current() string {
	return s.current
}

// Err returns the error that ended the stream, if any. Cancellation caused by
// Close is not reported.
func (s *Stream) Err() error {
	if !s.finished {
		return nil
	}
	if s.abandoned && errors.Is(s.err, context.Canceled) {
		return nil
	}
	return s.err
}

// Close abandons the stream, cancelling the underlying request, and waits
// for the producer to exit. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	if !s.finished {
		s.abandoned = true
		for range s.ch {
		}
		s.finished = true
	}
	return nil
}

// Collect drains s and returns the concatenated fragments.
func Collect(s *Stream) (string, error) {
	defer s.Close()

	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Current())
	}
	if err := s.Err(); err != nil {
		return b.String(), err
	}
	return b.String(), nil
}
