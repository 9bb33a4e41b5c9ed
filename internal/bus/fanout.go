package bus

import (
	"sync"

	"main/pkg/exception"
)

// Fanout is a single-producer broadcast over replicated SPSC queues.
//
// The consumer count is fixed at construction. Downstream engines request
// their consumer handles during wiring, before the producing engine starts;
// the producer seals the fanout when it begins publishing. Asking for more
// consumers than were provisioned is a wiring bug and fails loudly instead
// of handing back a dead queue.
type Fanout[T any] struct {
	mu       sync.Mutex
	queues   []*Queue[T]
	capacity int
	issued   int
	sealed   bool
}

// Consumer is the receiving end of one fanout queue.
type Consumer[T any] struct {
	q *Queue[T]
}

// NewFanout provisions a fanout for exactly `consumers` downstream queues,
// each with the given capacity.
func NewFanout[T any](consumers, capacity int) *Fanout[T] {
	if consumers < 0 {
		consumers = 0
	}
	return &Fanout[T]{
		queues:   make([]*Queue[T], 0, consumers),
		capacity: capacity,
	}
}

// Consumer mints the next consumer handle.
func (f *Fanout[T]) Consumer() (*Consumer[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sealed {
		return nil, exception.ErrFanoutSealed
	}
	if f.issued >= cap(f.queues) {
		return nil, exception.ErrFanoutOversubscribed
	}
	q := NewQueue[T](f.capacity)
	f.queues = append(f.queues, q)
	f.issued++
	return &Consumer[T]{q: q}, nil
}

// Provisioned reports the fixed consumer count.
func (f *Fanout[T]) Provisioned() int {
	return cap(f.queues)
}

// Issued reports how many consumer handles have been handed out.
func (f *Fanout[T]) Issued() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued
}

// Seal freezes the consumer set. The producing engine calls this once when
// it starts; afterwards Consumer always fails.
func (f *Fanout[T]) Seal() {
	f.mu.Lock()
	f.sealed = true
	f.mu.Unlock()
}

// Publish pushes the event to every issued queue in issue order, blocking
// on any queue that is full. Per-consumer FIFO order follows publish order.
func (f *Fanout[T]) Publish(v T) error {
	return f.PublishUntil(nil, v)
}

// PublishUntil is Publish with an abort channel: a producer blocked on a
// full consumer queue returns ErrPublishAborted once done closes instead
// of waiting out the consumer. On abort the event may have reached a
// prefix of the consumers; the topology only aborts on shutdown, where
// the tail is discarded anyway.
func (f *Fanout[T]) PublishUntil(done <-chan struct{}, v T) error {
	for _, q := range f.queues {
		if err := q.PushUntil(done, v); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every issued queue. Idempotent.
func (f *Fanout[T]) Close() {
	for _, q := range f.queues {
		q.Close()
	}
}

// TryPop dequeues the oldest event without blocking.
func (c *Consumer[T]) TryPop() (T, bool) {
	return c.q.TryPop()
}

// Len reports the number of buffered events.
func (c *Consumer[T]) Len() int {
	return c.q.Len()
}
