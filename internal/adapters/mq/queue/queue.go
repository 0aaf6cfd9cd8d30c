// Package queue buffers observations between the subscriber poll loop and
// the sink workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an observation. It returns false when the queue is full
	// or closed; the observation is then dropped.
	Enqueue(ctx context.Context, o model.Observation) bool

	// Dequeue returns a channel that yields queued observations until the
	// queue is closed and drained or ctx ends.
	Dequeue(ctx context.Context) <-chan model.Observation

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan model.Observation
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan model.Observation, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an observation without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, o model.Observation) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDrop("closed")
		return false
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueDrop("context_cancelled")
		return false
	default:
	}

	select {
	case q.items <- o:
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		metrics.RecordQueueDrop("queue_full")
		return false
	}
}

// Dequeue returns a channel fed from the queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Observation {
	out := make(chan model.Observation)
	go func() {
		defer close(out)
		for {
			select {
			case o, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- o:
					metrics.UpdateQueueSize(len(q.items))
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued observations.
func (q *InMemoryQueue) Len() int {
	return len(q.items)
}

// Close stops accepting observations. Already queued ones are still
// delivered to Dequeue consumers. Close is idempotent.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
