// Package timer provides a future that completes after a host timeout.
package timer

import (
	"sync"
	"time"

	"github.com/wippyai/wasync/async"
	"github.com/wippyai/wasync/future"
	"github.com/wippyai/wasync/hostcall"
	"github.com/wippyai/wasync/listener"
	"github.com/wippyai/wasync/wake"
)

// Timer completes when the host triggers its listener id.
// The host timeout is requested on the first poll, not at construction.
type Timer struct {
	ch  *hostcall.Channel
	reg *listener.Registry
	d   time.Duration
	id  uint32

	mu        sync.Mutex
	waker     wake.Waker
	completed bool
	requested bool
}

var _ future.Future = (*Timer)(nil)
var _ future.Stopper = (*Timer)(nil)

// New creates a timer on the default registry and host channel.
func New(d time.Duration) *Timer {
	return NewWith(listener.Default(), hostcall.Default(), d)
}

// NewWith creates a timer registering its listener in reg and requesting
// the timeout through ch.
func NewWith(reg *listener.Registry, ch *hostcall.Channel, d time.Duration) *Timer {
	t := &Timer{
		ch:  ch,
		reg: reg,
		d:   d,
	}
	t.id = reg.Add(t.fire)
	return t
}

// ID returns the listener id the host triggers.
func (t *Timer) ID() uint32 {
	return t.id
}

// Duration returns the requested delay.
func (t *Timer) Duration() time.Duration {
	return t.d
}

// Done reports whether the host has triggered the timer.
func (t *Timer) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Poll keeps a clone of the context waker and returns Pending until fired.
func (t *Timer) Poll(cx *future.Context) future.Status {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return future.Ready
	}

	var stale wake.Waker
	if w := cx.Waker(); !t.waker.WillWake(w) {
		stale = t.waker
		t.waker = w.Clone()
	}
	request := !t.requested
	t.requested = true
	t.mu.Unlock()

	stale.Release()
	if request {
		t.ch.RequestTimeout(t.id, t.d)
	}
	return future.Pending
}

// Stop releases the stored waker. A timer that never requested its timeout
// also gives up its listener id; a requested one keeps it until the host
// fires.
func (t *Timer) Stop() {
	t.mu.Lock()
	w := t.waker
	t.waker = wake.Waker{}
	requested := t.requested
	t.mu.Unlock()

	if !requested {
		t.reg.Remove(t.id)
	}
	w.Release()
}

func (t *Timer) fire() {
	t.mu.Lock()
	t.completed = true
	w := t.waker
	t.waker = wake.Waker{}
	t.mu.Unlock()

	w.Wake()
}

// Sleep suspends the body for d using the default registry and channel.
func Sleep(aw *async.Await, d time.Duration) {
	t := New(d)
	defer t.Stop()
	aw.Await(t)
}
