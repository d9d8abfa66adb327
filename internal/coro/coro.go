// Package coro provides coroutines built on goroutines and unbuffered
// channels: exactly one of the caller and the coroutine runs at a time, and
// control moves between them only at Resume and yield.
//
// Based on the construction in https://research.swtch.com/coro.
package coro

import (
	"runtime"
)

type resumeMsg[I any] struct {
	val  I
	stop bool
}

type step[O any] struct {
	panicVal any
	val      O
	done     bool
	ok       bool
	panicked bool
}

// C is a coroutine receiving I on each resume and producing O on each
// yield. Not safe for concurrent use.
type C[I, O any] struct {
	fn       func(in I, yield func(O) I) O
	in       chan resumeMsg[I]
	out      chan step[O]
	started  bool
	running  bool
	finished bool
}

// New creates a suspended coroutine running fn. fn does not start until the
// first Resume. The value fn returns is delivered by the Resume that
// observes its completion.
func New[I, O any](fn func(in I, yield func(O) I) O) *C[I, O] {
	return &C[I, O]{
		fn:  fn,
		in:  make(chan resumeMsg[I]),
		out: make(chan step[O]),
	}
}

// Resume passes in to the coroutine and runs it until it yields or returns.
// ok is false once the coroutine has finished or was stopped. A panic inside
// the coroutine is re-raised in the caller.
func (c *C[I, O]) Resume(in I) (out O, ok bool) {
	if c.finished {
		return out, false
	}
	if c.running {
		panic("coro: resume of a running coroutine")
	}
	if !c.started {
		c.start()
	}

	c.running = true
	c.in <- resumeMsg[I]{val: in}
	s := <-c.out
	c.running = false

	if s.panicked {
		c.finished = true
		panic(s.panicVal)
	}
	if s.done {
		c.finished = true
		return s.val, s.ok
	}
	return s.val, true
}

// Stop unwinds a suspended coroutine, running its deferred calls, and waits
// for it to exit. Stopping a finished coroutine is a no-op.
func (c *C[I, O]) Stop() {
	if c.finished {
		return
	}
	if c.running {
		panic("coro: stop of a running coroutine")
	}
	c.finished = true
	if !c.started {
		return
	}

	c.in <- resumeMsg[I]{stop: true}
	if s := <-c.out; s.panicked {
		panic(s.panicVal)
	}
}

// Done reports whether the coroutine has finished or was stopped.
func (c *C[I, O]) Done() bool {
	return c.finished
}

func (c *C[I, O]) start() {
	c.started = true
	go func() {
		var (
			res      O
			returned bool
		)
		defer func() {
			if p := recover(); p != nil {
				c.out <- step[O]{panicked: true, panicVal: p}
				return
			}
			c.out <- step[O]{val: res, done: true, ok: returned}
		}()

		r := <-c.in
		if r.stop {
			runtime.Goexit()
		}
		res = c.fn(r.val, c.yield)
		returned = true
	}()
}

func (c *C[I, O]) yield(v O) I {
	c.out <- step[O]{val: v}
	r := <-c.in
	if r.stop {
		// deferred calls run, recover() inside them sees nil
		runtime.Goexit()
	}
	return r.val
}
