package host

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v2"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/wasync/errors"
	"github.com/wippyai/wasync/hostcall"
)

const wasiModule = "wasi_snapshot_preview1"

type subscription struct {
	o  Observer
	id uint64
}

// Runtime owns a wazero runtime with the host imports instantiated.
type Runtime struct {
	runtime   wazero.Runtime
	cfg       *Config
	log       *zap.Logger
	funcs     *Functions
	instances *xsync.MapOf[string, *Instance]
	observers []subscription
	obsMu     sync.RWMutex
	obsSeq    uint64
	seq       atomic.Uint64
}

// New creates a runtime. A nil cfg uses DefaultConfig.
func New(ctx context.Context, cfg *Config) (*Runtime, error) {
	cfg = cfg.withDefaults()

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	r := &Runtime{
		runtime:   wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cfg:       cfg,
		log:       cfg.logger(),
		funcs:     NewFunctions(),
		instances: xsync.NewMapOf[*Instance](),
	}
	r.funcs.Register(hostcall.FuncConsoleLog, r.console(EventLog))
	r.funcs.Register(hostcall.FuncConsoleError, r.console(EventError))

	if cfg.EnableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r.runtime); err != nil {
			_ = r.runtime.Close(ctx)
			return nil, errors.Load("instantiate WASI", err)
		}
	}

	i32, f64 := api.ValueTypeI32, api.ValueTypeF64
	_, err := r.runtime.NewHostModuleBuilder(cfg.ImportModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.uploadBytes), []api.ValueType{i32, i32}, []api.ValueType{i32}).
		Export(ImportUploadBytes).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.requestTimeout), []api.ValueType{i32, i32}, nil).
		Export(ImportRequestTimeout).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.secondsNow), nil, []api.ValueType{f64}).
		Export(ImportSecondsNow).
		Instantiate(ctx)
	if err != nil {
		_ = r.runtime.Close(ctx)
		return nil, errors.Load("instantiate host module", err)
	}

	return r, nil
}

// Close releases the wazero runtime and every instance created from it.
func (r *Runtime) Close(ctx context.Context) error {
	r.instances.Range(func(_ string, inst *Instance) bool {
		inst.stopTimers()
		return true
	})
	return r.runtime.Close(ctx)
}

// Register adds a host procedure callable by guests.
func (r *Runtime) Register(name string, fn Func) {
	r.funcs.Register(name, fn)
}

// Functions returns the registered host procedures.
func (r *Runtime) Functions() *Functions {
	return r.funcs
}

// Config returns the effective configuration.
func (r *Runtime) Config() *Config {
	return r.cfg
}

// Subscribe adds an observer and returns a function removing it.
func (r *Runtime) Subscribe(o Observer) (unsubscribe func()) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.obsSeq++
	id := r.obsSeq
	r.observers = append(r.observers, subscription{o: o, id: id})

	return func() {
		r.obsMu.Lock()
		defer r.obsMu.Unlock()
		for i, s := range r.observers {
			if s.id == id {
				r.observers = append(r.observers[:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

func (r *Runtime) notify(e Event) {
	if e.Time.IsZero() {
		e.Time = r.cfg.Now()
	}
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, s := range r.observers {
		s.o.OnEvent(e)
	}
}

// Load compiles a guest module and checks that every function it imports
// is provided.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Module, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	if missing := r.missingImports(compiled); len(missing) > 0 {
		_ = compiled.Close(ctx)
		return nil, errors.NewMissingImportsError(missing)
	}

	exports := compiled.ExportedFunctions()
	r.log.Debug("module loaded",
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("exports", len(exports)))

	return &Module{
		runtime:  r,
		compiled: compiled,
	}, nil
}

func (r *Runtime) missingImports(compiled wazero.CompiledModule) []string {
	var missing []string
	for _, fn := range compiled.ImportedFunctions() {
		modName, funcName, _ := fn.Import()
		mod := r.runtime.Module(modName)
		if mod == nil {
			missing = append(missing, modName+"#"+funcName)
			continue
		}
		// host modules only expose definitions
		if _, ok := mod.ExportedFunctionDefinitions()[funcName]; !ok {
			missing = append(missing, modName+"#"+funcName)
		}
	}
	return missing
}

func (r *Runtime) nextName() string {
	return fmt.Sprintf("guest-%d", r.seq.Add(1))
}

func (r *Runtime) lookup(mod api.Module) *Instance {
	inst, ok := r.instances.Load(mod.Name())
	if !ok {
		panic(errors.NotFound(errors.PhaseHost, "instance", mod.Name()))
	}
	return inst
}

// upload_bytes(ptr, len i32) -> i32
func (r *Runtime) uploadBytes(ctx context.Context, mod api.Module, stack []uint64) {
	ptr, size := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	n, err := r.lookup(mod).upload(ctx, mod, ptr, size)
	if err != nil {
		// wazero turns the panic into a trap returned from the guest call
		panic(err)
	}
	stack[0] = api.EncodeU32(n)
}

// request_timeout(listener_id, millis i32)
func (r *Runtime) requestTimeout(_ context.Context, mod api.Module, stack []uint64) {
	id, ms := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	r.lookup(mod).requestTimeout(id, ms)
}

// seconds_now() -> f64
func (r *Runtime) secondsNow(_ context.Context, _ api.Module, stack []uint64) {
	now := r.cfg.Now()
	stack[0] = api.EncodeF64(float64(now.UnixNano()) / 1e9)
}

func (r *Runtime) console(kind EventType) Func {
	return func(ctx context.Context, call hostcall.Call) ([]byte, error) {
		msg := string(call.Payload)
		name := ""
		if inst := InstanceFromContext(ctx); inst != nil {
			name = inst.Name()
		}

		if kind == EventError {
			r.log.Error(msg, zap.String("instance", name))
		} else {
			r.log.Info(msg, zap.String("instance", name))
		}
		r.notify(Event{
			Type:     kind,
			Instance: name,
			Name:     call.Name,
			Message:  msg,
		})
		return nil, nil
	}
}
