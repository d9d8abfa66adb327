// Package async turns sequential function bodies into futures.
//
// A body started with Go runs on a coroutine. Each Await polls a future with
// the context of the current poll and, while it is pending, suspends the body
// until the executor polls the enclosing Future again:
//
//	f := async.Go(func(aw *async.Await) {
//		ch.Log("start")
//		timer.Sleep(aw, 10*time.Millisecond)
//		ch.Log("done")
//	})
//	executor.Spawn(f)
package async

import (
	"github.com/wippyai/wasync/future"
	"github.com/wippyai/wasync/internal/coro"
)

// Await is the handle a body uses to wait on other futures.
type Await struct {
	cx    *future.Context
	yield func(struct{}) *future.Context
}

// Await polls f until it is ready, suspending the body between polls.
func (a *Await) Await(f future.Future) {
	for f.Poll(a.cx) == future.Pending {
		a.cx = a.yield(struct{}{})
	}
}

// Context returns the context of the poll currently running the body.
func (a *Await) Context() *future.Context {
	return a.cx
}

// Future runs a body started with Go.
type Future struct {
	co *coro.C[*future.Context, struct{}]
}

var _ future.Future = (*Future)(nil)
var _ future.Stopper = (*Future)(nil)

// Go wraps fn as a future. fn does not run until the first poll.
func Go(fn func(aw *Await)) *Future {
	return &Future{
		co: coro.New(func(cx *future.Context, yield func(struct{}) *future.Context) struct{} {
			fn(&Await{cx: cx, yield: yield})
			return struct{}{}
		}),
	}
}

// Poll resumes the body until it awaits a pending future or returns.
// A panic in the body propagates to the caller.
func (f *Future) Poll(cx *future.Context) future.Status {
	if f.co.Done() {
		return future.Ready
	}
	f.co.Resume(cx)
	if f.co.Done() {
		return future.Ready
	}
	return future.Pending
}

// Stop abandons a suspended body. Its deferred calls run before Stop returns.
func (f *Future) Stop() {
	f.co.Stop()
}

// Done reports whether the body has returned or was stopped.
func (f *Future) Done() bool {
	return f.co.Done()
}
