package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasync/buffer"
	"github.com/wippyai/wasync/hostcall"
)

type consoleHost struct {
	calls []hostcall.Call
}

func (h *consoleHost) UploadBytes(msg []byte) uint32 {
	call, err := hostcall.Decode(msg)
	if err != nil {
		panic(err)
	}
	h.calls = append(h.calls, call)
	return 0
}

func (h *consoleHost) RequestTimeout(uint32, uint32) {}
func (h *consoleHost) SecondsNow() float64           { return 0 }

func TestNew_RoutesByLevel(t *testing.T) {
	h := &consoleHost{}
	log := New(hostcall.New(h, buffer.NewTable()), zapcore.DebugLevel)

	log.Debug("tick")
	log.Info("start", zap.Int("n", 3))
	log.Warn("slow")
	log.Error("failed", zap.String("op", "fetch"))

	want := []struct {
		fn       string
		contains []string
	}{
		{hostcall.FuncConsoleLog, []string{"DEBUG", "tick"}},
		{hostcall.FuncConsoleLog, []string{"INFO", "start", `"n": 3`}},
		{hostcall.FuncConsoleError, []string{"WARN", "slow"}},
		{hostcall.FuncConsoleError, []string{"ERROR", "failed", `"op": "fetch"`}},
	}
	if len(h.calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(h.calls), len(want))
	}
	for i, w := range want {
		got := h.calls[i]
		if got.Name != w.fn {
			t.Errorf("call %d: name = %q, want %q", i, got.Name, w.fn)
		}
		for _, s := range w.contains {
			if !strings.Contains(string(got.Payload), s) {
				t.Errorf("call %d: payload %q does not contain %q", i, got.Payload, s)
			}
		}
		if strings.HasSuffix(string(got.Payload), "\n") {
			t.Errorf("call %d: payload has trailing newline", i)
		}
	}
}

func TestNew_Level(t *testing.T) {
	h := &consoleHost{}
	log := New(hostcall.New(h, buffer.NewTable()), zapcore.WarnLevel)

	log.Info("hidden")
	log.Warn("shown")

	if len(h.calls) != 1 || h.calls[0].Name != hostcall.FuncConsoleError {
		t.Fatalf("calls = %+v", h.calls)
	}
}
