package shutdown

import (
	"context"
	"sync"
	"sync/atomic"
)

// Shutdown coordinates process-wide cancellation.
//
// It separates "something asked us to stop" (Trigger/IsTriggered/Done) from
// "everything has actually stopped" (Guard/Wait). Engines poll IsTriggered
// inside busy loops and hold a Guard for their lifetime; the main goroutine
// blocks on Wait until every guard is released.
type Shutdown struct {
	triggered atomic.Bool
	done      chan struct{}

	mu       sync.Mutex
	guards   int
	complete chan struct{}
}

// Guard is one lease on the completion barrier.
type Guard struct {
	s    *Shutdown
	once sync.Once
}

// New creates a coordinator in the running state.
func New() *Shutdown {
	return &Shutdown{
		done:     make(chan struct{}),
		complete: make(chan struct{}),
	}
}

// Trigger moves the coordinator into the shutting-down state. Safe to call
// from any goroutine any number of times; only the first call transitions.
func (s *Shutdown) Trigger() {
	if s.triggered.CompareAndSwap(false, true) {
		close(s.done)
	}
}

// IsTriggered reports whether shutdown has been requested. Non-blocking,
// intended for busy loops.
func (s *Shutdown) IsTriggered() bool {
	return s.triggered.Load()
}

// Done returns a channel closed once shutdown has been requested.
func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}

// Guard takes a lease on the completion barrier. Wait does not resolve
// while any guard is outstanding.
func (s *Shutdown) Guard() *Guard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guards == 0 {
		// re-arm the barrier for a fresh round of guards
		select {
		case <-s.complete:
			s.complete = make(chan struct{})
		default:
		}
	}
	s.guards++
	return &Guard{s: s}
}

// Release gives the lease back. Releasing twice is a no-op.
func (g *Guard) Release() {
	g.once.Do(func() {
		g.s.mu.Lock()
		defer g.s.mu.Unlock()
		g.s.guards--
		if g.s.guards == 0 {
			close(g.s.complete)
		}
	})
}

// Wait blocks until every outstanding guard has been released, or the
// context expires.
func (s *Shutdown) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.guards == 0 {
		s.mu.Unlock()
		return nil
	}
	complete := s.complete
	s.mu.Unlock()

	select {
	case <-complete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
