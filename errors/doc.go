// Package errors provides structured error types for the wasync library.
//
// Errors are categorized by Phase (which component raised it) and Kind (error
// category). The Error type carries the offending name or id, a detail message
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseChannel, errors.KindProtocolViolation).
//		Name("fetch.7").
//		Value(size).
//		Detail("response of %d bytes exceeds buffer capacity", size).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownListener(id)
//	err := errors.InvalidUTF8(errors.PhaseChannel, "fetch", data)
//
// Protocol violations are fatal: the guest-side packages panic with an *Error
// rather than returning it. All errors implement the standard error interface
// and support errors.Is/As.
package errors
