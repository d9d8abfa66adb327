package host

import (
	"context"
	"crypto/rand"
	"sort"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasync/errors"
)

// Module is a compiled guest.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
}

// Exports returns the names of the exported functions in sorted order.
func (m *Module) Exports() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Imports returns the imported functions as "module#function" keys.
func (m *Module) Imports() []string {
	var keys []string
	for _, fn := range m.compiled.ImportedFunctions() {
		modName, funcName, _ := fn.Import()
		keys = append(keys, modName+"#"+funcName)
	}
	return keys
}

// Instantiate creates an instance and runs the configured start functions.
// Host calls made by start functions are served.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	r := m.runtime
	inst := newInstance(r, r.nextName())

	// registered first: start functions may already call the host
	r.instances.Store(inst.name, inst)

	modCfg := wazero.NewModuleConfig().
		WithName(inst.name).
		WithStartFunctions(r.cfg.StartFunctions...)
	if r.cfg.EnableWASI {
		modCfg = modCfg.
			WithSysWalltime().
			WithSysNanotime().
			WithSysNanosleep().
			WithRandSource(rand.Reader)
		if r.cfg.Stdout != nil {
			modCfg = modCfg.WithStdout(r.cfg.Stdout)
		}
		if r.cfg.Stderr != nil {
			modCfg = modCfg.WithStderr(r.cfg.Stderr)
		}
	}

	mod, err := r.runtime.InstantiateModule(inst.withContext(ctx), m.compiled, modCfg)
	if err != nil {
		r.instances.Delete(inst.name)
		inst.stopTimers()
		return nil, errors.Instantiation(err)
	}

	inst.module = mod
	inst.memory = WrapMemory(mod.Memory())
	return inst, nil
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
