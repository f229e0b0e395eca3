// Package pipeline coordinates the concurrent download and processing
// stages of a mashup run. Downloaded files flow from the dispatcher to
// the processing pool through a CompletionQueue.
package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push after Close has been called.
var ErrQueueClosed = errors.New("completion queue is closed")

// CompletionQueue carries the paths of completed downloads from the
// dispatcher to the processing pool. Closing the queue signals that no
// further downloads will arrive; items pushed before Close remain
// readable until drained.
type CompletionQueue struct {
	mu     sync.RWMutex
	ch     chan string
	closed bool
}

// NewCompletionQueue creates a queue with the given buffer capacity.
func NewCompletionQueue(capacity int) *CompletionQueue {
	return &CompletionQueue{ch: make(chan string, capacity)}
}

// Push enqueues a downloaded file path. It blocks while the queue is
// full and fails once the queue is closed or ctx is cancelled.
func (q *CompletionQueue) Push(ctx context.Context, path string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- path:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the queue as complete and closes the underlying channel.
// It is safe to call more than once.
func (q *CompletionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// C returns the receive side of the queue. The channel is closed once
// all dispatch work is complete.
func (q *CompletionQueue) C() <-chan string {
	return q.ch
}
