package hostcall

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/wippyai/wasync/buffer"
	"github.com/wippyai/wasync/errors"
)

// stubHost answers "echo" by copying the payload into the response buffer,
// and records every message it receives.
type stubHost struct {
	buffers  *buffer.Table
	messages [][]byte
	calls    []Call
	timeouts [][2]uint32
	size     uint32 // forced response size when non-zero
	reply    []byte // forced response bytes
	now      float64
}

func (h *stubHost) UploadBytes(msg []byte) uint32 {
	h.messages = append(h.messages, append([]byte(nil), msg...))
	call, err := Decode(msg)
	if err != nil {
		panic(err)
	}
	h.calls = append(h.calls, call)

	if !call.HasBuffer {
		return 0
	}
	out := call.Payload
	if h.reply != nil {
		out = h.reply
	}
	n := copy(h.buffers.Get(call.BufferID)[:], out)
	if h.size != 0 {
		return h.size
	}
	return uint32(n)
}

func (h *stubHost) RequestTimeout(listenerID, millis uint32) {
	h.timeouts = append(h.timeouts, [2]uint32{listenerID, millis})
}

func (h *stubHost) SecondsNow() float64 {
	return h.now
}

func newStub() (*stubHost, *Channel) {
	buffers := buffer.NewTable()
	h := &stubHost{buffers: buffers}
	return h, New(h, buffers)
}

func TestEncode(t *testing.T) {
	msg := Encode("console_log", []byte("hi"))
	want := "console_log\x00hi"
	if string(msg) != want {
		t.Fatalf("Encode = %q, want %q", msg, want)
	}

	if got := string(Encode("ping", nil)); got != "ping\x00" {
		t.Fatalf("Encode(empty payload) = %q", got)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		wantName  string
		payload   string
		bufferID  uint32
		hasBuffer bool
	}{
		{"plain", "console_log\x00hello", "console_log", "hello", 0, false},
		{"request", "echo.7\x00hello", "echo", "hello", 7, true},
		{"dotted name", "ns.fetch.12\x00", "ns.fetch", "", 12, true},
		{"non numeric suffix", "ns.fetch\x00x", "ns.fetch", "x", 0, false},
		{"payload with separator", "echo.1\x00a\x00b", "echo", "a\x00b", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := Decode([]byte(tt.msg))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if call.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", call.Name, tt.wantName)
			}
			if string(call.Payload) != tt.payload {
				t.Errorf("Payload = %q, want %q", call.Payload, tt.payload)
			}
			if call.BufferID != tt.bufferID || call.HasBuffer != tt.hasBuffer {
				t.Errorf("buffer = (%d, %v), want (%d, %v)", call.BufferID, call.HasBuffer, tt.bufferID, tt.hasBuffer)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, msg := range []string{"no-separator", "\x00payload"} {
		_, err := Decode([]byte(msg))
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidData}) {
			t.Errorf("Decode(%q) error = %v, want invalid data", msg, err)
		}
	}
}

func TestChannel_RequestEcho(t *testing.T) {
	h, ch := newStub()

	got := ch.Request("echo", []byte("hello"), 7)
	if string(got) != "hello" {
		t.Fatalf("Request = %q, want hello", got)
	}

	if string(h.messages[0]) != "echo.7\x00hello" {
		t.Fatalf("wire message = %q", h.messages[0])
	}
}

func TestChannel_RequestTruncatesToReportedSize(t *testing.T) {
	h, ch := newStub()
	h.reply = []byte("abcdef")
	h.size = 3

	got := ch.Request("fetch", nil, 2)
	if string(got) != "abc" {
		t.Fatalf("Request = %q, want abc", got)
	}
}

func TestChannel_RequestPreservesBytes(t *testing.T) {
	_, ch := newStub()

	payload := make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(i * 31)
	}
	got := ch.Request("echo", payload, 1)
	if len(got) != len(payload) {
		t.Fatalf("len = %d, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], payload[i])
		}
	}
}

func TestChannel_ResponseTooLarge(t *testing.T) {
	h, ch := newStub()
	h.size = buffer.Capacity + 1

	defer func() {
		err, ok := recover().(error)
		if !ok || !stderrors.Is(err, &errors.Error{Phase: errors.PhaseChannel, Kind: errors.KindProtocolViolation}) {
			t.Fatalf("expected protocol violation panic, got %v", err)
		}
	}()
	ch.Request("fetch", nil, 0)
}

func TestChannel_RequestString(t *testing.T) {
	h, ch := newStub()

	s, err := ch.RequestString("echo", []byte("héllo"), 3)
	if err != nil {
		t.Fatalf("RequestString failed: %v", err)
	}
	if s != "héllo" {
		t.Fatalf("RequestString = %q", s)
	}

	h.reply = []byte{0xff, 0xfe}
	_, err = ch.GetString("bad", 3)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseChannel, Kind: errors.KindInvalidUTF8}) {
		t.Fatalf("expected invalid UTF-8 error, got %v", err)
	}
}

func TestChannel_SendAndLog(t *testing.T) {
	h, ch := newStub()

	if n := ch.Send("notify", []byte("x")); n != 0 {
		t.Fatalf("Send size = %d, want 0", n)
	}
	ch.Log("hello")
	ch.Error("boom")

	want := []string{"notify", FuncConsoleLog, FuncConsoleError}
	for i, name := range want {
		if h.calls[i].Name != name || h.calls[i].HasBuffer {
			t.Errorf("call %d = %+v, want %s without buffer", i, h.calls[i], name)
		}
	}
	if string(h.calls[1].Payload) != "hello" {
		t.Errorf("log payload = %q", h.calls[1].Payload)
	}
}

func TestChannel_RequestTimeout(t *testing.T) {
	h, ch := newStub()

	ch.RequestTimeout(4, 100*time.Millisecond)
	if len(h.timeouts) != 1 || h.timeouts[0] != [2]uint32{4, 100} {
		t.Fatalf("timeouts = %v", h.timeouts)
	}
}

func TestMillis(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want uint32
	}{
		{-time.Second, 0},
		{0, 0},
		{999 * time.Microsecond, 0},
		{1500 * time.Millisecond, 1500},
		{time.Duration(1<<62) * time.Nanosecond, 1<<32 - 1},
	}
	for _, tt := range tests {
		if got := Millis(tt.d); got != tt.want {
			t.Errorf("Millis(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	prev := defaultChannel.Load()
	defer SetDefault(prev)

	SetDefault(nil)
	if Lookup() != nil {
		t.Fatal("Lookup should return nil before Install")
	}
	func() {
		defer func() {
			err, ok := recover().(error)
			if !ok || !stderrors.Is(err, &errors.Error{Phase: errors.PhaseChannel, Kind: errors.KindNotInitialized}) {
				t.Fatalf("expected not initialized panic, got %v", err)
			}
		}()
		Default()
	}()

	h := &stubHost{now: 12.5}
	ch := Install(h)
	if Default() != ch || Lookup() != ch {
		t.Fatal("Install did not set the default channel")
	}
	if ch.Buffers() != buffer.Default() {
		t.Fatal("Install should use the default buffer table")
	}
	if Default().SecondsNow() != 12.5 {
		t.Fatal("SecondsNow not forwarded")
	}
}
