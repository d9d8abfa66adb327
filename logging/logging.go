// Package logging builds zap loggers that write through the host console.
//
// Entries below warn level go to console_log, warn and above go to
// console_error. Each entry is one host call.
package logging

import (
	"bytes"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasync/hostcall"
)

// New returns a logger writing console-encoded entries at or above level
// through ch.
func New(ch *hostcall.Channel, level zapcore.Level) *zap.Logger {
	return zap.New(NewCore(ch, level))
}

// NewCore returns the zapcore.Core behind New.
func NewCore(ch *hostcall.Channel, level zapcore.Level) zapcore.Core {
	enc := zapcore.NewConsoleEncoder(encoderConfig())

	info := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l < zapcore.WarnLevel
	})
	warn := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l >= zapcore.WarnLevel
	})

	return zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(&consoleWriter{ch: ch, fn: hostcall.FuncConsoleLog}), info),
		zapcore.NewCore(enc.Clone(), zapcore.AddSync(&consoleWriter{ch: ch, fn: hostcall.FuncConsoleError}), warn),
	)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	// the host stamps its own time
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	return cfg
}

// consoleWriter sends each write as one call to fn.
type consoleWriter struct {
	ch *hostcall.Channel
	fn string
}

func (w *consoleWriter) Write(p []byte) (int, error) {
	w.ch.Send(w.fn, bytes.TrimSuffix(p, []byte("\n")))
	return len(p), nil
}
