package guest

import (
	"strings"
	"testing"
	"time"
	"unsafe"

	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasync/async"
	"github.com/wippyai/wasync/buffer"
	"github.com/wippyai/wasync/executor"
	"github.com/wippyai/wasync/hostcall"
	"github.com/wippyai/wasync/timer"
)

// fakeHost records calls and the last requested timeout.
type fakeHost struct {
	calls    []hostcall.Call
	timeouts []uint32
}

func (h *fakeHost) UploadBytes(msg []byte) uint32 {
	call, err := hostcall.Decode(msg)
	if err != nil {
		panic(err)
	}
	h.calls = append(h.calls, call)
	return 0
}

func (h *fakeHost) RequestTimeout(id, _ uint32) {
	h.timeouts = append(h.timeouts, id)
}

func (h *fakeHost) SecondsNow() float64 { return 0 }

func (h *fakeHost) console() []string {
	var out []string
	for _, c := range h.calls {
		out = append(out, c.Name+":"+string(c.Payload))
	}
	return out
}

func install(t *testing.T) *fakeHost {
	t.Helper()
	prev := hostcall.Lookup()
	t.Cleanup(func() { hostcall.SetDefault(prev) })
	h := &fakeHost{}
	Install(h)
	return h
}

func TestMain_TimerRoundTrip(t *testing.T) {
	h := install(t)

	err := Main(func(aw *async.Await) {
		Log("start")
		timer.Sleep(aw, 10*time.Millisecond)
		Log("done")
	})
	if err != nil {
		t.Fatalf("Main: %v", err)
	}
	if got := h.console(); len(got) != 1 || got[0] != "console_log:start" {
		t.Fatalf("console = %v", got)
	}
	if len(h.timeouts) != 1 {
		t.Fatalf("timeouts = %v", h.timeouts)
	}

	TriggerTimeout(h.timeouts[0])

	if got := h.console(); len(got) != 2 || got[1] != "console_log:done" {
		t.Fatalf("console = %v", got)
	}
	if executor.Active() {
		t.Fatal("task should be complete")
	}
}

func TestMain_Busy(t *testing.T) {
	h := install(t)

	var id uint32
	err := Main(func(aw *async.Await) {
		tm := timer.New(time.Millisecond)
		id = tm.ID()
		defer tm.Stop()
		aw.Await(tm)
	})
	if err != nil {
		t.Fatalf("Main: %v", err)
	}

	if err := Main(func(*async.Await) {}); err == nil {
		t.Fatal("second Main should fail while a task is running")
	}
	got := h.console()
	if len(got) != 1 || !strings.HasPrefix(got[0], "console_error:") {
		t.Fatalf("console = %v", got)
	}

	TriggerTimeout(id)
	if executor.Active() {
		t.Fatal("task should be complete")
	}
}

func TestBufferPointer(t *testing.T) {
	p := BufferPointer(77)
	if p == 0 {
		t.Fatal("nil buffer pointer")
	}
	if p != BufferPointer(77) {
		t.Fatal("buffer pointer is not stable")
	}
	if p != uintptr(unsafe.Pointer(buffer.Get(77))) {
		t.Fatal("pointer does not address the default table buffer")
	}
}

func TestRecover(t *testing.T) {
	h := install(t)

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Fatalf("re-panicked with %v", r)
			}
		}()
		defer Recover()
		panic("kaboom")
	}()

	if len(h.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(h.calls))
	}
	c := h.calls[0]
	if c.Name != hostcall.FuncConsoleError {
		t.Fatalf("name = %q", c.Name)
	}
	msg := string(c.Payload)
	if !strings.HasPrefix(msg, "panic: kaboom") || !strings.Contains(msg, "goroutine") {
		t.Fatalf("payload = %q", msg)
	}
}

func TestRecover_NoPanic(t *testing.T) {
	h := install(t)
	func() {
		defer Recover()
	}()
	if len(h.calls) != 0 {
		t.Fatalf("calls = %v", h.console())
	}
}

func TestLogger(t *testing.T) {
	h := install(t)
	Logger(zapcore.InfoLevel).Warn("careful")
	Error("bad")

	got := h.console()
	if len(got) != 2 {
		t.Fatalf("console = %v", got)
	}
	for _, line := range got {
		if !strings.HasPrefix(line, "console_error:") {
			t.Errorf("line %q not routed to console_error", line)
		}
	}
}
