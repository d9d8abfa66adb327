package hostcall

import (
	"math"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/wasync/buffer"
	"github.com/wippyai/wasync/errors"
)

// Built-in host procedures.
const (
	FuncConsoleLog   = "console_log"
	FuncConsoleError = "console_error"
)

// Host is the set of functions a host provides to the guest.
type Host interface {
	// UploadBytes passes one encoded message to the host and returns the
	// number of response bytes available.
	UploadBytes(msg []byte) uint32
	// RequestTimeout asks the host to trigger listenerID after millis.
	RequestTimeout(listenerID, millis uint32)
	// SecondsNow returns the host's wall clock in seconds.
	SecondsNow() float64
}

// Channel issues calls to a Host and reads responses from a buffer table.
type Channel struct {
	host    Host
	buffers *buffer.Table
}

// New creates a channel over host reading responses from buffers.
func New(host Host, buffers *buffer.Table) *Channel {
	return &Channel{
		host:    host,
		buffers: buffers,
	}
}

// Buffers returns the table responses are read from.
func (c *Channel) Buffers() *buffer.Table {
	return c.buffers
}

// Send performs a fire-and-forget call and returns the host-reported size.
func (c *Channel) Send(name string, payload []byte) uint32 {
	return c.host.UploadBytes(Encode(name, payload))
}

// Request calls name with a response buffer and returns the bytes the host
// wrote into it.
func (c *Channel) Request(name string, payload []byte, bufferID uint32) []byte {
	full := RequestName(name, bufferID)

	// the host resolves the buffer address during the call
	c.buffers.Get(bufferID)

	size := c.Send(full, payload)
	if size > buffer.Capacity {
		panic(errors.ResponseTooLarge(errors.PhaseChannel, full, int(size), buffer.Capacity))
	}

	Logger().Debug("host request",
		zap.String("name", name),
		zap.Uint32("buffer", bufferID),
		zap.Uint32("size", size))

	return c.buffers.Slice(bufferID, int(size))
}

// RequestString is Request with the response decoded as UTF-8 text.
func (c *Channel) RequestString(name string, payload []byte, bufferID uint32) (string, error) {
	data := c.Request(name, payload, bufferID)
	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(errors.PhaseChannel, name, data)
	}
	return string(data), nil
}

// Get is Request without a payload.
func (c *Channel) Get(name string, bufferID uint32) []byte {
	return c.Request(name, nil, bufferID)
}

// GetString is RequestString without a payload.
func (c *Channel) GetString(name string, bufferID uint32) (string, error) {
	return c.RequestString(name, nil, bufferID)
}

// Log writes msg to the host console.
func (c *Channel) Log(msg string) {
	c.Send(FuncConsoleLog, []byte(msg))
}

// Error writes msg to the host error console.
func (c *Channel) Error(msg string) {
	c.Send(FuncConsoleError, []byte(msg))
}

// RequestTimeout asks the host to trigger listenerID after d.
// Durations are truncated to whole milliseconds and clamped to 32 bits.
func (c *Channel) RequestTimeout(listenerID uint32, d time.Duration) {
	c.host.RequestTimeout(listenerID, Millis(d))
}

// SecondsNow returns the host wall clock in seconds.
func (c *Channel) SecondsNow() float64 {
	return c.host.SecondsNow()
}

// Millis converts d into the protocol's millisecond count.
func Millis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	switch {
	case ms <= 0:
		return 0
	case ms > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(ms)
}

var defaultChannel atomic.Pointer[Channel]

// Default returns the process-wide channel. It panics if none was installed.
func Default() *Channel {
	c := defaultChannel.Load()
	if c == nil {
		panic(errors.NotInitialized(errors.PhaseChannel, "host channel"))
	}
	return c
}

// Lookup returns the process-wide channel, or nil if none was installed.
func Lookup() *Channel {
	return defaultChannel.Load()
}

// SetDefault replaces the process-wide channel.
func SetDefault(c *Channel) {
	defaultChannel.Store(c)
}

// Install makes host the process-wide channel target using the default buffer table.
func Install(host Host) *Channel {
	c := New(host, buffer.Default())
	SetDefault(c)
	return c
}
