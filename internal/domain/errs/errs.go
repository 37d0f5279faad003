// Package errs defines the error kinds shared by the console core.
//
// Every failure leaving a gateway or a domain service is an *Error carrying one
// of the kinds below, so callers branch on KindOf(err) instead of matching text.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes a console error.
type Kind string

const (
	// KindNetworkFailure means the backend was unreachable or timed out.
	KindNetworkFailure Kind = "network_failure"

	// KindRemoteRejection means the backend answered with a non-2xx status.
	KindRemoteRejection Kind = "remote_rejection"

	// KindParseError means a structured document or response body could not be decoded.
	KindParseError Kind = "parse_error"

	// KindNotFound means the requested entity does not exist.
	KindNotFound Kind = "not_found"

	// KindValidation means a required local field is missing or malformed.
	KindValidation Kind = "validation"

	// KindConflict means the operation collides with another one in flight
	// or targets a discarded editing session.
	KindConflict Kind = "conflict"

	// KindUnknown is returned by KindOf for errors that are not *Error.
	KindUnknown Kind = "unknown"
)

// Error is the structured error returned across component boundaries.
type Error struct {
	// Kind categorizes the failure.
	Kind Kind

	// Op is the logical operation that failed (e.g. "UpdateFinding").
	Op string

	// Status is the HTTP status for remote rejections, zero otherwise.
	Status int

	// Message is a human-readable description suitable for a notification.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Rejection creates a remote rejection for a non-2xx response.
func Rejection(op string, status int, message string) *Error {
	return &Error{Kind: KindRemoteRejection, Op: op, Status: status, Message: message}
}

// Validation creates a local validation error.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRemote reports whether err came back from the backend or the transport,
// as opposed to a local validation or conflict.
func IsRemote(err error) bool {
	switch KindOf(err) {
	case KindNetworkFailure, KindRemoteRejection, KindParseError, KindNotFound:
		return true
	default:
		return false
	}
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
