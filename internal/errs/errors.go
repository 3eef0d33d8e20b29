// Package errs provides the unified error type used across all of askdb.
//
// Every subsystem (database, filestore, generation, speech, pipeline) wraps
// its native errors into *errs.Error before returning them to callers.
// Callers use the Is* predicates to handle errors without importing
// driver-specific packages.
//
// Two layers of kinds exist. Driver kinds describe what went wrong at a
// backend (timeout, bad query, auth). Pipeline kinds describe which stage of
// a translate-and-execute request failed and are what the user sees:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindTimeout, "query timed out", myErr)
//
//	// In the pipeline, re-kind at the stage boundary:
//	return errs.Wrap(errs.ErrKindSourceUnavailable, "schema fetch failed", err)
//
//	// In a handler, check the error kind:
//	if errs.IsRejected(err) {
//	    http.Error(w, errs.Display(err), http.StatusUnprocessableEntity)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no table
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL or storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure

	// Pipeline kinds.
	ErrKindSourceUnavailable // schema fetch failed
	ErrKindBackend           // text generation failed
	ErrKindExecution         // statement run or commit failed
	ErrKindRejected          // statement disallowed before execution
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindSourceUnavailable:
		return "source_unavailable"
	case ErrKindBackend:
		return "backend_error"
	case ErrKindExecution:
		return "execution_error"
	case ErrKindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all askdb subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsSourceUnavailable reports whether the data source structure could not be read.
func IsSourceUnavailable(err error) bool {
	return KindOf(err) == ErrKindSourceUnavailable
}

// IsBackend reports whether the generation backend call failed.
func IsBackend(err error) bool {
	return KindOf(err) == ErrKindBackend
}

// IsExecution reports whether running or committing a statement failed.
func IsExecution(err error) bool {
	return KindOf(err) == ErrKindExecution
}

// IsRejected reports whether a statement was refused before execution.
func IsRejected(err error) bool {
	return KindOf(err) == ErrKindRejected
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// Display renders err as a message fit for an end user.
//
// Pipeline kinds show their message followed by the innermost cause text,
// which for execution failures is the raw error reported by the database.
func Display(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	root := e.Cause
	for root != nil {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	if root == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, root)
}
