package host

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/wasync/hostcall"
)

// Func implements a host procedure. For calls carrying a buffer id the
// returned bytes are written into that guest buffer; otherwise they are
// discarded.
type Func func(ctx context.Context, call hostcall.Call) ([]byte, error)

// Functions maps procedure names to implementations. Safe for concurrent use.
type Functions struct {
	m  map[string]Func
	mu sync.RWMutex
}

// NewFunctions creates an empty set.
func NewFunctions() *Functions {
	return &Functions{m: make(map[string]Func)}
}

// Register adds or replaces fn under name.
func (f *Functions) Register(name string, fn Func) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[name] = fn
}

// Lookup returns the function registered under name.
func (f *Functions) Lookup(name string) (Func, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn, ok := f.m[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (f *Functions) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.m))
	for name := range f.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type instanceKey struct{}

// InstanceFromContext returns the instance whose call is being served, or
// nil outside a host function.
func InstanceFromContext(ctx context.Context) *Instance {
	inst, _ := ctx.Value(instanceKey{}).(*Instance)
	return inst
}
