// Package listener maps listener ids to one-shot callbacks fired by the host.
package listener

import (
	"math"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/wippyai/wasync/errors"
)

// Callback runs when the host signals its listener id.
type Callback func()

// Registry holds pending listeners. Safe for concurrent use.
type Registry struct {
	ids     *bitset.BitSet
	entries map[uint32]Callback
	mu      sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:     bitset.New(0),
		entries: make(map[uint32]Callback),
	}
}

// Allocate returns the smallest id not currently registered.
// The id is not reserved until Register.
func (r *Registry) Allocate() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstClear()
}

// Register stores cb under id, replacing any previous entry.
// id must come from Allocate and must not have fired yet.
func (r *Registry) Register(id uint32, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids.Set(uint(id))
	r.entries[id] = cb
}

// Add allocates an id and registers cb under it atomically.
func (r *Registry) Add(cb Callback) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.firstClear()
	r.ids.Set(uint(id))
	r.entries[id] = cb
	return id
}

// Trigger removes the listener for id and runs it.
// Signalling an unknown id is a protocol violation and panics.
func (r *Registry) Trigger(id uint32) {
	r.mu.Lock()
	cb, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		r.ids.Clear(uint(id))
	}
	r.mu.Unlock()

	if !ok {
		panic(errors.UnknownListener(id))
	}
	cb()
}

// Remove drops the listener for id without running it.
func (r *Registry) Remove(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	r.ids.Clear(uint(id))
	return true
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of pending listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) firstClear() uint32 {
	id, ok := r.ids.NextClear(0)
	if !ok {
		id = r.ids.Count()
	}
	if id > math.MaxUint32 {
		panic(errors.Exhausted(errors.PhaseListener, "listener id"))
	}
	return uint32(id)
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}
