// Package guest wires the async core into a WebAssembly module.
//
// On wasip1 the package imports upload_bytes, request_timeout and
// seconds_now from the "env" module, installs them as the default host
// channel, and exports trigger_timeout and get_buffer_pointer. A module
// built with -buildmode=c-shared then only needs an entry export:
//
//	//go:wasmexport run
//	func run() {
//		defer guest.Recover()
//		guest.Main(func(aw *async.Await) {
//			guest.Log("start")
//			timer.Sleep(aw, time.Second)
//			guest.Log("done")
//		})
//	}
//
// On other platforms the same functions are available for tests, with the
// host installed explicitly through Install.
package guest

import (
	"fmt"
	"runtime/debug"
	"unsafe"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasync/async"
	"github.com/wippyai/wasync/buffer"
	"github.com/wippyai/wasync/executor"
	"github.com/wippyai/wasync/hostcall"
	"github.com/wippyai/wasync/listener"
	"github.com/wippyai/wasync/logging"
)

// Install makes h the default host channel target.
func Install(h hostcall.Host) *hostcall.Channel {
	return hostcall.Install(h)
}

// Main starts fn as the module's task on the default executor. It fails if
// a task is already running.
func Main(fn func(aw *async.Await)) error {
	if err := executor.Spawn(async.Go(fn)); err != nil {
		report(err)
		return err
	}
	return nil
}

// TriggerTimeout fires the listener registered under id.
func TriggerTimeout(id uint32) {
	listener.Default().Trigger(id)
}

// BufferPointer returns the linear-memory address of buffer id, creating
// the buffer if needed.
func BufferPointer(id uint32) uintptr {
	return uintptr(unsafe.Pointer(buffer.Get(id)))
}

// Log writes msg to the host console.
func Log(msg string) {
	hostcall.Default().Log(msg)
}

// Error writes msg to the host error console.
func Error(msg string) {
	hostcall.Default().Error(msg)
}

// Logger returns a zap logger writing to the host console.
func Logger(level zapcore.Level) *zap.Logger {
	return logging.New(hostcall.Default(), level)
}

// Recover reports a panic with its stack to the host error console and
// re-panics. It must be deferred directly by every exported function.
func Recover() {
	if r := recover(); r != nil {
		report(fmt.Errorf("panic: %v\n\n%s", r, debug.Stack()))
		panic(r)
	}
}

func report(err error) {
	if ch := hostcall.Lookup(); ch != nil {
		ch.Error(err.Error())
	}
}
