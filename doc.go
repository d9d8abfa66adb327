// Package wasync is a single-task async core for sandboxed WebAssembly
// guests, together with a wazero host that runs them.
//
// A guest has no threads, no clock and no I/O of its own. It reaches the
// outside world through one message channel and is resumed by the host when
// a timer it asked for fires. This module supplies both halves.
//
// # Architecture Overview
//
//	wasync/              Root package with the Memory interface
//	├── buffer/          Fixed-capacity response buffers keyed by id
//	├── hostcall/        Host channel and the name\0payload wire codec
//	├── listener/        Listener ids mapped to one-shot callbacks
//	├── wake/            Reference-counted wake capability
//	├── future/          Poll contract shared by futures and the executor
//	├── async/           Sequential bodies as futures
//	├── executor/        Single-task executor
//	├── timer/           Host-driven timer future
//	├── clock/           Host wall clock
//	├── logging/         zap loggers writing to the host console
//	├── guest/           wasip1 imports, exports and bootstrap
//	├── host/            wazero runner implementing the host side
//	└── errors/          Structured error types for debugging
//
// # Guest
//
// A guest built with GOOS=wasip1 GOARCH=wasm -buildmode=c-shared imports
// the guest package and exports an entry point:
//
//	//go:wasmexport run
//	func run() {
//		defer guest.Recover()
//		guest.Main(func(aw *async.Await) {
//			guest.Log("start")
//			timer.Sleep(aw, 500*time.Millisecond)
//			guest.Log("done")
//		})
//	}
//
// Main installs the body as the executor's only task and polls it once. The
// body runs until it awaits the timer, at which point the export returns to
// the host. When the host calls trigger_timeout the timer wakes the task and
// the executor resumes the body where it left off.
//
// # Host
//
// Run the guest with the host package:
//
//	rt, err := host.New(ctx, host.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	err = inst.Run(ctx) // entry point, then timers until none are left
//
// # Host Functions
//
// Guests call host procedures by name. console_log and console_error are
// built in; anything else is registered on the runtime:
//
//	rt.Register("fetch", func(ctx context.Context, call hostcall.Call) ([]byte, error) {
//	    return lookup(string(call.Payload))
//	})
//
// A guest calling fetch with a buffer id receives the returned bytes in that
// buffer.
package wasync
