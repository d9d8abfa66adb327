package executor

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasync/future"
	"github.com/wippyai/wasync/wake"
)

// Task is the executor's single slot. It is the target of the wakers handed
// to its future.
type Task struct {
	exec  *Executor
	fut   future.Future // nil while polling and once discarded
	waker wake.Waker    // the executor's reference
	id    uint64

	polling   bool
	notified  bool
	discarded bool
}

var _ wake.Wakeable = (*Task)(nil)
var _ wake.Releaser = (*Task)(nil)

// ID returns the task's sequence number within its executor.
func (t *Task) ID() uint64 {
	return t.id
}

// WakeByRef polls the task again if it is still installed.
func (t *Task) WakeByRef() {
	t.exec.drive(t)
}

// Release runs when the last waker referencing the task is dropped.
// A future still held at that point is stopped.
func (t *Task) Release() {
	e := t.exec
	e.mu.Lock()
	f := t.fut
	t.fut = nil
	t.discarded = true
	if e.task == t {
		e.task = nil
	}
	e.mu.Unlock()

	Logger().Debug("task released", zap.Uint64("task", t.id))
	if f != nil {
		future.Stop(f)
	}
}
