// Package pipe provides an in-process ports.Transport implementation.
// It is the media leg used by tests and dev mode: the "remote" side pushes
// user audio with Push and observes agent audio on Played.
package pipe

import (
	"context"
	"errors"
	"sync"

	"github.com/androfit/agent/pkg/domain"
)

// ErrClosed is returned when using a transport after Close.
var ErrClosed = errors.New("pipe transport closed")

// Transport implements ports.Transport over channels.
type Transport struct {
	in  chan domain.Frame
	out chan domain.Segment

	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	ended bool
}

// New creates a pipe transport with the given frame buffer size.
func New(buffer int) *Transport {
	if buffer <= 0 {
		buffer = 64
	}
	return &Transport{
		in:   make(chan domain.Frame, buffer),
		out:  make(chan domain.Segment, 8),
		done: make(chan struct{}),
	}
}

// Frames returns the incoming audio channel (agent side).
func (t *Transport) Frames() <-chan domain.Frame {
	return t.in
}

// Play delivers a synthesized segment to the remote side (agent side).
func (t *Transport) Play(ctx context.Context, segment domain.Segment) error {
	select {
	case t.out <- segment:
		return nil
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the transport down. Frames is closed so pipeline stages drain.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.EndInput()
	})
	return nil
}

// Push feeds a user audio frame into the transport (remote side).
// Push and EndInput must not be called concurrently with each other.
func (t *Transport) Push(ctx context.Context, frame domain.Frame) error {
	t.mu.Lock()
	ended := t.ended
	t.mu.Unlock()
	if ended {
		return ErrClosed
	}

	select {
	case t.in <- frame:
		return nil
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EndInput signals that no further user audio will arrive (remote side).
func (t *Transport) EndInput() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ended {
		t.ended = true
		close(t.in)
	}
}

// Played returns the channel of agent audio segments (remote side).
func (t *Transport) Played() <-chan domain.Segment {
	return t.out
}
