package engine

import (
	"context"
	"runtime"

	"github.com/yanun0323/logs"

	"main/internal/shutdown"
	"main/pkg/exception"
)

// Launch binds the engine to a dedicated OS thread and runs it to
// completion. The ordinal id names the engine in diagnostics only.
//
// The engine goroutine holds a shutdown guard for its lifetime, so the
// coordinator's completion barrier covers every launched engine. Any
// abnormal outcome, an error from Start or a panic on the engine thread,
// triggers process-wide shutdown; downstream engines depend on this
// engine's output queues being fed, so an unexpected exit is never safe
// to ignore.
func Launch(id int, e Engine, sd *shutdown.Shutdown) error {
	if e == nil {
		return exception.ErrNilInstance
	}
	if sd == nil {
		return exception.ErrNilInstance
	}

	guard := sd.Guard()
	go func() {
		runtime.LockOSThread()
		defer guard.Release()
		defer func() {
			if r := recover(); r != nil {
				logs.Errorf("engine panic, id: %d, name: %s, panic: %v", id, e.Name(), r)
				sd.Trigger()
			}
		}()

		logs.Infof("starting engine, id: %d, name: %s", id, e.Name())
		if err := e.Start(context.Background(), sd); err != nil {
			logs.Errorf("engine stopped, id: %d, name: %s, err: %+v", id, e.Name(), err)
			sd.Trigger()
			return
		}
		logs.Infof("engine finished, id: %d, name: %s", id, e.Name())
	}()

	return nil
}
