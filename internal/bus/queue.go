package bus

import (
	"sync/atomic"

	"main/pkg/exception"
)

// DefaultCapacity is the queue depth used by the deployed topology.
const DefaultCapacity = 1024

// Queue is a bounded single-producer single-consumer event queue.
//
// Push blocks the producer when the queue is full; a slow consumer applies
// backpressure instead of dropping live data. The pop side never blocks.
// Concurrent producers or concurrent consumers on one queue are not
// supported; ownership of each side is transferred by construction.
type Queue[T any] struct {
	ch     chan T
	closed atomic.Bool
}

// NewQueue allocates a queue with the given fixed capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Push enqueues an event, blocking while the queue is full.
func (q *Queue[T]) Push(v T) error {
	return q.PushUntil(nil, v)
}

// PushUntil enqueues an event, blocking while the queue is full. A close
// of done aborts the wait with ErrPublishAborted, so a producer stalled
// on a full queue still observes shutdown. A nil done never aborts.
func (q *Queue[T]) PushUntil(done <-chan struct{}, v T) error {
	if q.closed.Load() {
		return exception.ErrQueueClosed
	}
	select {
	case q.ch <- v:
		return nil
	case <-done:
		return exception.ErrPublishAborted
	}
}

// TryPush enqueues an event without blocking.
func (q *Queue[T]) TryPush(v T) error {
	if q.closed.Load() {
		return exception.ErrQueueClosed
	}
	select {
	case q.ch <- v:
		return nil
	default:
		return exception.ErrQueueFull
	}
}

// TryPop dequeues the oldest event without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	select {
	case v, ok := <-q.ch:
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Len reports the number of buffered events.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap reports the fixed capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// Close stops the queue from accepting new events. Buffered events remain
// poppable. Close is idempotent.
func (q *Queue[T]) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.ch)
	}
}
