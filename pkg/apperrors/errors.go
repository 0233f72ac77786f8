// Package apperrors defines the typed error taxonomy shared by the engine.
//
// Engines raise typed errors; the job runner is the only place that catches
// all of them and converts to a terminal failed status.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Kind classifies an engine error.
type Kind string

const (
	// KindValidation marks bad operations or configuration, caught before
	// any side effect and surfaced synchronously where possible.
	KindValidation Kind = "validation"
	// KindTransformation marks an operation invalid against the current
	// dataset state; the whole apply call aborts atomically.
	KindTransformation Kind = "transformation"
	// KindTraining marks degenerate splits, unsupported algorithm/task
	// combinations and other fit-time failures.
	KindTraining Kind = "training"
	// KindProvider marks LLM provider failures. These are always recovered
	// locally via fallback heuristics and never fail a job by themselves.
	KindProvider Kind = "provider"
	// KindStorage marks dataset/report/model persistence failures.
	KindStorage Kind = "storage"
)

// Error is a classified engine error.
type Error struct {
	Kind    Kind
	Op      string // offending operation or component, if known
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += " [" + e.Op + "]"
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Transformation creates a transformation error naming the offending operation.
func Transformation(op string, format string, args ...any) *Error {
	return &Error{Kind: KindTransformation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Training creates a training error.
func Training(format string, args ...any) *Error {
	return &Error{Kind: KindTraining, Message: fmt.Sprintf(format, args...)}
}

// Provider wraps a failed LLM provider call.
func Provider(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindProvider, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Storage wraps a persistence failure.
func Storage(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the Kind of err, or "" if err is not a classified Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsTransformation reports whether err is a transformation error.
func IsTransformation(err error) bool { return KindOf(err) == KindTransformation }

// IsTraining reports whether err is a training error.
func IsTraining(err error) bool { return KindOf(err) == KindTraining }

// IsProvider reports whether err is a provider error.
func IsProvider(err error) bool { return KindOf(err) == KindProvider }

// IsStorage reports whether err is a storage error.
func IsStorage(err error) bool { return KindOf(err) == KindStorage }
