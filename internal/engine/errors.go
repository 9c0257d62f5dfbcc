package engine

import (
	"errors"
	"fmt"
)

// Domain-specific errors for the engine.
var (
	// ErrModuleNotFound is returned when an identifier has no registered factory
	// or no live descriptor.
	ErrModuleNotFound = errors.New("engine: module not found")

	// ErrDuplicateModule is returned when an identifier is registered or
	// instantiated twice.
	ErrDuplicateModule = errors.New("engine: duplicate module")

	// ErrCreateFailed is returned when a module's Create reports failure or
	// returns no state.
	ErrCreateFailed = errors.New("engine: module create failed")

	// ErrLoadFailed is returned when a module's Load reports failure.
	ErrLoadFailed = errors.New("engine: module load failed")

	// ErrUpdateFailed wraps a module's Update failure.
	ErrUpdateFailed = errors.New("engine: module update failed")

	// ErrModulePanic is returned when a lifecycle call panics.
	ErrModulePanic = errors.New("engine: module panicked")

	// ErrNotStarted is returned by Run when Start has not succeeded.
	ErrNotStarted = errors.New("engine: not started")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("engine: already started")
)

// ErrorKind classifies a failure by how far its effects reach. The process
// entry point maps kinds to exit statuses.
type ErrorKind uint8

const (
	// KindNone means no error.
	KindNone ErrorKind = iota

	// KindResource covers file open and read failures.
	KindResource

	// KindParse covers malformed configuration that aborts a load.
	KindParse

	// KindSchema covers anomalies such as unknown module identifiers.
	KindSchema

	// KindModule covers failures contained to a single module.
	KindModule

	// KindFatal covers unrecoverable engine-level faults.
	KindFatal
)

// String returns the lower-case name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindResource:
		return "resource"
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	case KindModule:
		return "module"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ExitCode returns the process exit status for the kind.
func (k ErrorKind) ExitCode() int {
	switch k {
	case KindNone:
		return 0
	case KindResource:
		return 2
	case KindParse:
		return 3
	case KindSchema:
		return 4
	case KindModule:
		return 5
	default:
		return 1
	}
}

// Error is an engine failure annotated with its kind and the operation that
// produced it.
type Error struct {
	Kind   ErrorKind
	Op     string
	Module string
	Err    error
}

// Error implements error.
func (e *Error) Error() string {
	msg := e.Op
	if e.Module != "" {
		msg += " " + e.Module
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. A nil error is KindNone; an error that
// carries no *Error is treated as KindFatal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

func newError(kind ErrorKind, op, module string, err error) *Error {
	return &Error{Kind: kind, Op: op, Module: module, Err: err}
}
