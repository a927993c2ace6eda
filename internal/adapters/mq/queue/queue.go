// Package queue provides the bounded in-memory job queue feeding scoring workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/perfscore/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue is a bounded FIFO shared by producers and workers.
type Queue[T any] interface {
	// Enqueue adds an item without blocking. Returns ErrFull when at capacity.
	Enqueue(ctx context.Context, item T) error

	// EnqueueWait adds an item, waiting for space until ctx is done.
	EnqueueWait(ctx context.Context, item T) error

	// Dequeue blocks until an item is available. After Close it keeps
	// returning queued items and then ErrClosed.
	Dequeue(ctx context.Context) (T, error)

	// Len returns the current number of queued items.
	Len() int

	// Close stops accepting new items.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel. The channel is never
// closed; a separate done channel signals shutdown so late senders cannot panic.
type InMemoryQueue[T any] struct {
	items    chan T
	done     chan struct{}
	capacity int

	mu     sync.Mutex
	closed bool
}

var _ Queue[int] = (*InMemoryQueue[int])(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	s := settings{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(&s)
	}

	q := &InMemoryQueue[T]{
		items:    make(chan T, s.capacity),
		done:     make(chan struct{}),
		capacity: s.capacity,
	}

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	if err := q.admit(ctx); err != nil {
		return err
	}

	select {
	case q.items <- item:
		q.accepted()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// EnqueueWait implements Queue.EnqueueWait.
func (q *InMemoryQueue[T]) EnqueueWait(ctx context.Context, item T) error {
	if err := q.admit(ctx); err != nil {
		return err
	}

	select {
	case q.items <- item:
		q.accepted()
		return nil
	case <-q.done:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	select {
	case item := <-q.items:
		q.taken()
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-q.done:
		// drain what was accepted before Close
		select {
		case item := <-q.items:
			q.taken()
			return item, nil
		default:
			return zero, ErrClosed
		}
	}
}

// Len implements Queue.Len.
func (q *InMemoryQueue[T]) Len() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close implements Queue.Close.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.done)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *InMemoryQueue[T]) admit(ctx context.Context) error {
	if q.IsClosed() {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}
	return nil
}

func (q *InMemoryQueue[T]) accepted() {
	metrics.RecordQueueEnqueue()
	metrics.UpdateQueueSize(len(q.items))
}

func (q *InMemoryQueue[T]) taken() {
	metrics.RecordQueueDequeue()
	metrics.UpdateQueueSize(len(q.items))
}
