package framefeed

import (
	"context"
	"errors"
	"sync"

	"wavebars/internal/pipeline"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("framefeed: queue closed")

// Queue is a bounded pipeline.Sink. Publish blocks while the buffer is full,
// so a slow consumer applies backpressure to the committer.
type Queue struct {
	frames chan pipeline.Frame
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewQueue returns a queue buffering up to capacity frames.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		frames: make(chan pipeline.Frame, capacity),
		done:   make(chan struct{}),
	}
}

// Publish enqueues frame.
func (q *Queue) Publish(ctx context.Context, frame pipeline.Frame) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.frames <- frame:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frames yields frames in commit order until Close.
func (q *Queue) Frames() <-chan pipeline.Frame {
	return q.frames
}

// Close ends the stream. Buffered frames remain readable.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		close(q.frames)
		q.mu.Unlock()
	})
}
