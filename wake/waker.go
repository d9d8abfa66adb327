package wake

import (
	"sync/atomic"

	"github.com/wippyai/wasync/errors"
)

// Wakeable is the target of a Waker.
type Wakeable interface {
	// WakeByRef schedules the target to be polled again.
	WakeByRef()
}

// Consumer is implemented by targets with a distinct owned-wake path.
// Waker.Wake calls Wake instead of WakeByRef when available.
type Consumer interface {
	Wakeable
	Wake()
}

// Releaser is implemented by targets that hold resources until the last
// Waker referencing them is gone.
type Releaser interface {
	Release()
}

type handle struct {
	target Wakeable
	refs   atomic.Int64
}

// Waker is a counted reference to a Wakeable. The zero Waker is inert.
type Waker struct {
	h *handle
}

// New returns a Waker holding the first reference to target.
func New(target Wakeable) Waker {
	h := &handle{target: target}
	h.refs.Store(1)
	return Waker{h: h}
}

// Clone returns a new reference to the same target.
func (w Waker) Clone() Waker {
	if w.h == nil {
		return w
	}
	for {
		refs := w.h.refs.Load()
		if refs <= 0 {
			panic(errors.New(errors.PhaseWake, errors.KindRefCount).
				Value(refs).
				Detail("clone of a released waker").
				Build())
		}
		if w.h.refs.CompareAndSwap(refs, refs+1) {
			return w
		}
	}
}

// Wake performs the wake effect and consumes this reference.
func (w Waker) Wake() {
	if w.h == nil {
		return
	}
	if c, ok := w.h.target.(Consumer); ok {
		c.Wake()
	} else {
		w.h.target.WakeByRef()
	}
	w.Release()
}

// WakeByRef performs the wake effect without consuming a reference.
func (w Waker) WakeByRef() {
	if w.h == nil {
		return
	}
	w.h.target.WakeByRef()
}

// Release drops this reference. The target's Release hook runs when the
// last reference is dropped.
func (w Waker) Release() {
	if w.h == nil {
		return
	}
	refs := w.h.refs.Add(-1)
	switch {
	case refs == 0:
		if r, ok := w.h.target.(Releaser); ok {
			r.Release()
		}
	case refs < 0:
		panic(errors.RefCountUnderflow(refs))
	}
}

// WillWake reports whether both wakers reference the same target handle.
func (w Waker) WillWake(other Waker) bool {
	return w.h != nil && w.h == other.h
}

// IsZero reports whether w references nothing.
func (w Waker) IsZero() bool {
	return w.h == nil
}

// Refs returns the current reference count.
func (w Waker) Refs() int64 {
	if w.h == nil {
		return 0
	}
	return w.h.refs.Load()
}

type noop struct{}

func (noop) WakeByRef() {}

var noopWaker = Waker{h: &handle{target: noop{}}}

func init() {
	// never reaches zero
	noopWaker.h.refs.Store(1 << 62)
}

// Noop returns a Waker whose wake effect does nothing.
func Noop() Waker {
	return noopWaker
}
