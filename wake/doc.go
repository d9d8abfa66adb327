// Package wake implements the wake capability handed to suspension points.
//
// A Waker is a reference-counted handle bound to one target, typically the
// executor's task. Code that knows nothing about the target can hold a Waker
// and use it later to ask for the target to be polled again:
//
//	w := wake.New(task)   // one reference, owned by the caller
//	c := w.Clone()        // second reference, e.g. captured by a timer
//	c.Wake()              // wake effect, consumes the clone's reference
//	w.Release()           // last reference gone: task.Release() runs
//
// Every Clone must be balanced by exactly one Release or one Wake. When the
// count reaches zero the target's Release hook runs exactly once; releasing
// past zero panics instead of running it again.
//
// Counts are atomic: a wake may arrive from a different call stack than the
// one that polled.
package wake
