package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/shutdown"
	"main/pkg/exception"
)

type fakeEngine struct {
	name string
	run  func(ctx context.Context, sd *shutdown.Shutdown) error
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) Start(ctx context.Context, sd *shutdown.Shutdown) error {
	return e.run(ctx, sd)
}

func TestLaunchNilArguments(t *testing.T) {
	sd := shutdown.New()
	assert.ErrorIs(t, Launch(0, nil, sd), exception.ErrNilInstance)
	assert.ErrorIs(t, Launch(0, &fakeEngine{name: "noop"}, nil), exception.ErrNilInstance)
}

func TestLaunchReleasesGuardOnCleanExit(t *testing.T) {
	sd := shutdown.New()
	started := make(chan struct{})
	e := &fakeEngine{
		name: "clean",
		run: func(ctx context.Context, sd *shutdown.Shutdown) error {
			close(started)
			return nil
		},
	}
	require.NoError(t, Launch(1, e, sd))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sd.Wait(ctx))
	assert.False(t, sd.IsTriggered(), "clean exit must not trigger shutdown")
}

func TestLaunchErrorTriggersShutdown(t *testing.T) {
	sd := shutdown.New()
	e := &fakeEngine{
		name: "failing",
		run: func(ctx context.Context, sd *shutdown.Shutdown) error {
			return exception.ErrControlClosed
		},
	}
	require.NoError(t, Launch(2, e, sd))

	select {
	case <-sd.Done():
	case <-time.After(time.Second):
		t.Fatal("engine error did not trigger shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sd.Wait(ctx))
}

func TestLaunchPanicTriggersShutdown(t *testing.T) {
	sd := shutdown.New()
	e := &fakeEngine{
		name: "panicking",
		run: func(ctx context.Context, sd *shutdown.Shutdown) error {
			panic("boom")
		},
	}
	require.NoError(t, Launch(3, e, sd))

	select {
	case <-sd.Done():
	case <-time.After(time.Second):
		t.Fatal("engine panic did not trigger shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sd.Wait(ctx))
}

func TestLaunchedEngineObservesTrigger(t *testing.T) {
	sd := shutdown.New()
	e := &fakeEngine{
		name: "cooperative",
		run: func(ctx context.Context, sd *shutdown.Shutdown) error {
			for !sd.IsTriggered() {
				time.Sleep(time.Millisecond)
			}
			return nil
		},
	}
	require.NoError(t, Launch(4, e, sd))

	sd.Trigger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sd.Wait(ctx))
}
