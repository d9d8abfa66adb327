// Package future defines the poll contract between suspended computations
// and the executor that drives them.
//
// A Future is polled with a Context carrying the Waker of the task being
// driven. Poll returns Ready once the computation has finished; otherwise it
// returns Pending after arranging for the Waker (or a clone of it) to be
// invoked when progress is possible.
package future

import (
	"github.com/wippyai/wasync/wake"
)

// Status is the outcome of one poll.
type Status uint8

const (
	Pending Status = iota // not finished, a wake will follow
	Ready                 // finished
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Future is a resumable computation.
type Future interface {
	Poll(cx *Context) Status
}

// Stopper is implemented by futures holding resources that must be released
// when they are abandoned before completion.
type Stopper interface {
	Stop()
}

// Context is passed to every poll.
type Context struct {
	waker wake.Waker
}

// NewContext creates a poll context for w. The context borrows w: futures
// that need to keep it past the poll must Clone it.
func NewContext(w wake.Waker) *Context {
	return &Context{waker: w}
}

// Waker returns the borrowed waker of the task being polled.
func (cx *Context) Waker() wake.Waker {
	return cx.waker
}

// Func adapts a function to the Future interface.
type Func func(cx *Context) Status

// Poll calls f.
func (f Func) Poll(cx *Context) Status {
	return f(cx)
}

type completed struct{}

func (completed) Poll(*Context) Status { return Ready }

// Completed returns a future that finishes on its first poll.
func Completed() Future {
	return completed{}
}

// Stop stops f if it implements Stopper.
func Stop(f Future) {
	if s, ok := f.(Stopper); ok {
		s.Stop()
	}
}
