package host

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasync/buffer"
	"github.com/wippyai/wasync/errors"
	"github.com/wippyai/wasync/hostcall"
)

// Instance is a running guest.
type Instance struct {
	runtime *Runtime
	module  api.Module
	memory  *Memory
	name    string

	fired  *queue.Queue // listener ids ready for trigger_timeout
	timers map[uint32]*time.Timer
	signal chan struct{}
	mu     sync.Mutex
	closed bool

	callMu sync.Mutex
}

func newInstance(r *Runtime, name string) *Instance {
	return &Instance{
		runtime: r,
		name:    name,
		fired:   queue.New(),
		timers:  make(map[uint32]*time.Timer),
		signal:  make(chan struct{}, 1),
	}
}

// Name returns the wazero module name of the instance.
func (i *Instance) Name() string {
	return i.name
}

// Memory returns the guest's linear memory, or nil if it exports none.
func (i *Instance) Memory() *Memory {
	return i.memory
}

// Module returns the underlying wazero module.
func (i *Instance) Module() api.Module {
	return i.module
}

// Call invokes an exported function. Calls are serialized per instance.
func (i *Instance) Call(ctx context.Context, export string, args ...uint64) ([]uint64, error) {
	fn := i.module.ExportedFunction(export)
	if fn == nil {
		return nil, errors.MissingExport(export)
	}

	i.callMu.Lock()
	defer i.callMu.Unlock()

	results, err := fn.Call(i.withContext(ctx), args...)
	if err != nil {
		return nil, errors.Trap(export, err)
	}
	return results, nil
}

// Run calls the entry point and then delivers timers until none are
// outstanding.
func (i *Instance) Run(ctx context.Context) error {
	if _, err := i.Call(ctx, i.runtime.cfg.EntryPoint); err != nil {
		return err
	}
	return i.Wait(ctx)
}

// Wait delivers fired timers to trigger_timeout, one at a time in firing
// order, until no timer is outstanding or ctx is done.
func (i *Instance) Wait(ctx context.Context) error {
	for {
		id, ok, pending := i.next()
		if ok {
			if err := i.trigger(ctx, id); err != nil {
				return err
			}
			continue
		}
		if pending == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-i.signal:
		}
	}
}

// Pending returns the number of timers requested but not yet delivered.
func (i *Instance) Pending() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.timers) + i.fired.Length()
}

// Close stops outstanding timers and closes the guest module.
func (i *Instance) Close(ctx context.Context) error {
	i.stopTimers()
	i.runtime.instances.Delete(i.name)
	if i.module == nil {
		return nil
	}
	return i.module.Close(ctx)
}

func (i *Instance) withContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, instanceKey{}, i)
}

func (i *Instance) next() (id uint32, ok bool, pending int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fired.Length() > 0 {
		return i.fired.Remove().(uint32), true, 0
	}
	return 0, false, len(i.timers)
}

func (i *Instance) trigger(ctx context.Context, id uint32) error {
	i.runtime.notify(Event{
		Type:     EventTimerFired,
		Instance: i.name,
		Listener: id,
	})
	_, err := i.Call(ctx, ExportTriggerTimeout, api.EncodeU32(id))
	return err
}

func (i *Instance) requestTimeout(id, ms uint32) {
	delay := time.Duration(ms) * time.Millisecond

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	if prev, ok := i.timers[id]; ok {
		prev.Stop()
	}
	i.timers[id] = time.AfterFunc(delay, func() { i.fire(id) })
	i.mu.Unlock()

	i.runtime.log.Debug("timeout requested",
		zap.String("instance", i.name),
		zap.Uint32("listener", id),
		zap.Duration("delay", delay))
	i.runtime.notify(Event{
		Type:     EventTimerRequested,
		Instance: i.name,
		Listener: id,
		Delay:    delay,
	})
}

func (i *Instance) fire(id uint32) {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	delete(i.timers, id)
	i.fired.Add(id)
	i.mu.Unlock()

	select {
	case i.signal <- struct{}{}:
	default:
	}
}

func (i *Instance) stopTimers() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	for id, t := range i.timers {
		t.Stop()
		delete(i.timers, id)
	}
	for i.fired.Length() > 0 {
		i.fired.Remove()
	}
}

// upload serves one upload_bytes call from mod.
func (i *Instance) upload(ctx context.Context, mod api.Module, ptr, size uint32) (uint32, error) {
	mem := WrapMemory(mod.Memory())
	if mem == nil {
		return 0, errors.MissingExport("memory")
	}
	msg, err := mem.Read(ptr, size)
	if err != nil {
		return 0, err
	}
	call, err := hostcall.Decode(msg)
	if err != nil {
		return 0, err
	}

	fn, ok := i.runtime.funcs.Lookup(call.Name)
	if !ok {
		return 0, errors.UnknownFunction(call.Name)
	}
	resp, err := fn(ctx, call)
	if err != nil {
		return 0, errors.New(errors.PhaseHost, errors.KindInvalidData).
			Name(call.Name).
			Cause(err).
			Detail("procedure %q failed", call.Name).
			Build()
	}

	if !call.HasBuffer {
		if len(resp) > 0 {
			i.runtime.log.Debug("response discarded",
				zap.String("name", call.Name),
				zap.Int("size", len(resp)))
		}
		i.notifyCall(call, 0)
		return 0, nil
	}

	if len(resp) > buffer.Capacity {
		return 0, errors.ResponseTooLarge(errors.PhaseHost, hostcall.RequestName(call.Name, call.BufferID), len(resp), buffer.Capacity)
	}
	if len(resp) > 0 {
		addr, err := bufferPointer(ctx, mod, call.BufferID)
		if err != nil {
			return 0, err
		}
		if err := mem.Write(addr, resp); err != nil {
			return 0, err
		}
	}
	i.notifyCall(call, len(resp))
	return uint32(len(resp)), nil
}

func (i *Instance) notifyCall(call hostcall.Call, size int) {
	if call.Name == hostcall.FuncConsoleLog || call.Name == hostcall.FuncConsoleError {
		return
	}
	i.runtime.notify(Event{
		Type:      EventCall,
		Instance:  i.name,
		Name:      call.Name,
		BufferID:  call.BufferID,
		HasBuffer: call.HasBuffer,
		Size:      size,
	})
}

// bufferPointer asks the guest where buffer id lives. It re-enters the guest
// while upload_bytes is still on its stack.
func bufferPointer(ctx context.Context, mod api.Module, id uint32) (uint32, error) {
	fn := mod.ExportedFunction(ExportGetBufferPointer)
	if fn == nil {
		return 0, errors.MissingExport(ExportGetBufferPointer)
	}
	results, err := fn.Call(ctx, api.EncodeU32(id))
	if err != nil {
		return 0, errors.Trap(ExportGetBufferPointer, err)
	}
	if len(results) == 0 {
		return 0, errors.InvalidData(errors.PhaseHost, ExportGetBufferPointer, "no result")
	}
	return api.DecodeU32(results[0]), nil
}
