package host

import (
	"io"
	"time"

	"go.uber.org/zap"
)

// Export and import names of the guest protocol.
const (
	DefaultImportModule = "env"
	DefaultEntryPoint   = "run"

	ImportUploadBytes    = "upload_bytes"
	ImportRequestTimeout = "request_timeout"
	ImportSecondsNow     = "seconds_now"

	ExportTriggerTimeout   = "trigger_timeout"
	ExportGetBufferPointer = "get_buffer_pointer"
)

// Config holds configuration for runtime creation.
type Config struct {
	// Logger receives host and guest console output. Nil uses the package logger.
	Logger *zap.Logger

	// Now is the clock behind seconds_now. Nil uses time.Now.
	Now func() time.Time

	// Stdout and Stderr receive WASI output when EnableWASI is set.
	Stdout io.Writer
	Stderr io.Writer

	// ImportModule is the module name guests import the host functions from.
	ImportModule string

	// EntryPoint is the export Run calls.
	EntryPoint string

	// StartFunctions run at instantiation, in order. Missing ones are skipped.
	// Go reactors built with -buildmode=c-shared need "_initialize".
	StartFunctions []string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// EnableWASI instantiates wasi_snapshot_preview1, which Go guests import.
	EnableWASI bool
}

// DefaultConfig returns the configuration for Go wasip1 guests.
func DefaultConfig() *Config {
	return &Config{
		ImportModule:   DefaultImportModule,
		EntryPoint:     DefaultEntryPoint,
		StartFunctions: []string{"_initialize"},
		EnableWASI:     true,
	}
}

// withDefaults returns a copy of c with empty fields filled in.
func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		c = out
	}
	cp := *c
	if cp.ImportModule == "" {
		cp.ImportModule = out.ImportModule
	}
	if cp.EntryPoint == "" {
		cp.EntryPoint = out.EntryPoint
	}
	if cp.StartFunctions == nil {
		cp.StartFunctions = out.StartFunctions
	}
	if cp.Now == nil {
		cp.Now = time.Now
	}
	return &cp
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}
