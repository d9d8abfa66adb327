package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which component raised the error
type Phase string

const (
	PhaseBuffer   Phase = "buffer"   // buffer table
	PhaseChannel  Phase = "channel"  // host channel calls
	PhaseDecode   Phase = "decode"   // wire message decoding
	PhaseListener Phase = "listener" // listener registry
	PhaseWake     Phase = "wake"     // wake capability
	PhaseSchedule Phase = "schedule" // executor
	PhaseTimer    Phase = "timer"    // timer future
	PhaseHost     Phase = "host"     // host function dispatch
	PhaseLoad     Phase = "load"     // guest module loading
	PhaseRuntime  Phase = "runtime"  // guest instance execution
)

// Kind categorizes the error
type Kind string

const (
	KindProtocolViolation Kind = "protocol_violation"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindInvalidData       Kind = "invalid_data"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindNotFound          Kind = "not_found"
	KindRefCount          Kind = "ref_count"
	KindBusy              Kind = "busy"
	KindExhausted         Kind = "exhausted"
	KindNotInitialized    Kind = "not_initialized"
	KindUnknownFunction   Kind = "unknown_function"
	KindMissingImport     Kind = "missing_import"
	KindMissingExport     Kind = "missing_export"
	KindInstantiation     Kind = "instantiation"
	KindTrap              Kind = "trap"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Name != "" {
		b.WriteString(" at ")
		b.WriteString(e.Name)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Name sets the function, export or buffer name involved
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, name string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Name:   name,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, name string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Name:   name,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// ResponseTooLarge reports a host response that does not fit its buffer
func ResponseTooLarge(phase Phase, name string, size, capacity int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindProtocolViolation,
		Name:   name,
		Detail: fmt.Sprintf("response of %d bytes exceeds buffer capacity %d", size, capacity),
		Value:  size,
	}
}

// UnknownListener reports a host signal for a listener id it was never given
func UnknownListener(id uint32) *Error {
	return &Error{
		Phase:  PhaseListener,
		Kind:   KindProtocolViolation,
		Detail: fmt.Sprintf("listener %d is not registered", id),
		Value:  id,
	}
}

// RefCountUnderflow reports a wake handle released more often than cloned
func RefCountUnderflow(refs int64) *Error {
	return &Error{
		Phase:  PhaseWake,
		Kind:   KindRefCount,
		Detail: fmt.Sprintf("reference count dropped to %d", refs),
		Value:  refs,
	}
}

// Busy reports an executor that already owns the task identified by id
func Busy(phase Phase, id any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBusy,
		Detail: fmt.Sprintf("task %v already installed", id),
		Value:  id,
	}
}

// Exhausted reports an identifier space with no free slot
func Exhausted(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("%s space exhausted", what),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, name string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Name:   name,
		Detail: detail,
	}
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	Module   string // e.g., "env"
	Function string // e.g., "upload_bytes"
}

// MissingImportsError is returned when a guest imports host functions the runner does not provide
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "module#function" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		mod, fn := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Module:   mod,
			Function: fn,
		})
	}
	return result
}

func parseImportKey(key string) (module, function string) {
	mod, fn, found := strings.Cut(key, "#")
	if found {
		return mod, fn
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[load] missing_import: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d host function(s):\n", len(e.Imports)))

	// Group by module for cleaner output
	byMod := make(map[string][]string)
	var modOrder []string
	for _, imp := range e.Imports {
		if _, exists := byMod[imp.Module]; !exists {
			modOrder = append(modOrder, imp.Module)
		}
		byMod[imp.Module] = append(byMod[imp.Module], imp.Function)
	}

	for _, mod := range modOrder {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, fn := range byMod[mod] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}

// Runner convenience constructors

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Name:   name,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// UnknownFunction reports a guest call to a function the host does not provide
func UnknownFunction(name string) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindUnknownFunction,
		Name:   name,
		Detail: fmt.Sprintf("procedure %q is not registered", name),
	}
}

// MissingExport reports a guest module lacking a required export
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindMissingExport,
		Name:   name,
		Detail: fmt.Sprintf("guest does not export %q", name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Trap reports a guest call that ended in a trap
func Trap(export string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindTrap,
		Name:   export,
		Detail: fmt.Sprintf("call %q trapped", export),
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
