// Package executor drives a single suspended computation.
//
// The executor owns at most one task. A task moves from Empty to Running
// when spawned, to Suspended when its future returns Pending, and back to
// Empty when the future completes or is replaced. Wakes re-enter the
// executor synchronously: the wake that makes a task runnable is the call
// that polls it.
package executor

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasync/errors"
	"github.com/wippyai/wasync/future"
	"github.com/wippyai/wasync/wake"
)

// Executor holds the task slot. The zero value is not usable; use New.
type Executor struct {
	mu   sync.Mutex
	task *Task
	seq  uint64
}

// New creates an empty executor.
func New() *Executor {
	return &Executor{}
}

// Spawn installs f as the task and polls it once.
// It returns a KindBusy error if a task is already installed.
func (e *Executor) Spawn(f future.Future) error {
	e.mu.Lock()
	if e.task != nil {
		id := e.task.id
		e.mu.Unlock()
		return errors.Busy(errors.PhaseSchedule, id)
	}
	t := e.install(f)
	e.mu.Unlock()

	Logger().Debug("task spawned", zap.Uint64("task", t.id))
	e.drive(t)
	return nil
}

// Replace discards the installed task, if any, and spawns f in its place.
// The discarded future is never polled again and is stopped if it
// implements future.Stopper. A task replaced while it is being polled is
// stopped once that poll returns.
func (e *Executor) Replace(f future.Future) {
	e.mu.Lock()
	old := e.task
	var (
		stale    future.Future
		oldWaker wake.Waker
	)
	if old != nil {
		old.discarded = true
		stale, old.fut = old.fut, nil
		// a task being polled keeps its waker until the poll returns
		if !old.polling {
			oldWaker, old.waker = old.waker, wake.Waker{}
		}
	}
	t := e.install(f)
	e.mu.Unlock()

	if old != nil {
		Logger().Debug("task replaced",
			zap.Uint64("old", old.id),
			zap.Uint64("task", t.id))
	}
	if stale != nil {
		future.Stop(stale)
	}
	oldWaker.Release()

	e.drive(t)
}

// Active reports whether a task is installed.
func (e *Executor) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task != nil
}

func (e *Executor) install(f future.Future) *Task {
	e.seq++
	t := &Task{exec: e, fut: f, id: e.seq}
	t.waker = wake.New(t)
	e.task = t
	return t
}

// drive polls t if it is the installed task. A drive that finds t mid-poll
// records the wake and lets the running driver poll again.
func (e *Executor) drive(t *Task) {
	e.mu.Lock()
	if e.task != t {
		e.mu.Unlock()
		return
	}
	if t.polling {
		t.notified = true
		e.mu.Unlock()
		return
	}
	f := t.fut
	if f == nil {
		e.mu.Unlock()
		return
	}
	t.fut = nil
	t.polling = true
	cx := future.NewContext(t.waker)
	e.mu.Unlock()

	completed := false
	defer func() {
		if completed {
			return
		}
		// Poll panicked: the task is gone.
		e.mu.Lock()
		t.polling = false
		t.discarded = true
		if e.task == t {
			e.task = nil
		}
		w := t.waker
		t.waker = wake.Waker{}
		e.mu.Unlock()
		w.Release()
	}()

	for {
		status := f.Poll(cx)

		e.mu.Lock()
		switch {
		case t.discarded:
			t.polling = false
			w := t.waker
			t.waker = wake.Waker{}
			e.mu.Unlock()
			completed = true
			future.Stop(f)
			w.Release()
			return

		case status == future.Ready:
			t.polling = false
			t.discarded = true
			e.task = nil
			w := t.waker
			t.waker = wake.Waker{}
			e.mu.Unlock()
			completed = true
			Logger().Debug("task completed", zap.Uint64("task", t.id))
			w.Release()
			return

		case t.notified:
			t.notified = false
			e.mu.Unlock()
			continue

		default:
			t.fut = f
			t.polling = false
			e.mu.Unlock()
			completed = true
			return
		}
	}
}

var defaultExecutor = New()

// Default returns the process-wide executor.
func Default() *Executor {
	return defaultExecutor
}

// Spawn spawns f on the default executor.
func Spawn(f future.Future) error {
	return defaultExecutor.Spawn(f)
}

// Replace replaces the task of the default executor with f.
func Replace(f future.Future) {
	defaultExecutor.Replace(f)
}

// Active reports whether the default executor has a task.
func Active() bool {
	return defaultExecutor.Active()
}
