package engine

import (
	"context"

	"main/internal/shutdown"
)

// Engine is an independently scheduled worker with a uniform lifecycle.
//
// Start runs until the engine decides to stop or observes cancellation
// through the coordinator; returning a non-nil error means the engine can
// no longer make progress. Engines share no mutable state: every cross
// engine hand-off goes through bus consumers minted during wiring, before
// Start is called.
type Engine interface {
	// Name identifies the engine in logs and thread diagnostics.
	Name() string

	// Start drives the engine to completion on its dedicated thread.
	Start(ctx context.Context, sd *shutdown.Shutdown) error
}
