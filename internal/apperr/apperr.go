// Package apperr provides typed errors that the HTTP layer maps to status
// codes. Pipeline stages return these (or plain wrapped errors, which are
// treated as internal failures).
package apperr

import (
	"errors"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindInternal covers asset, render and merge failures.
	KindInternal Kind = iota
	// KindBadRequest indicates a body that is not a JSON object.
	KindBadRequest
	// KindUnauthorized indicates a missing or wrong API key.
	KindUnauthorized
	// KindTooLarge indicates a body over the configured limit.
	KindTooLarge
	// KindUnavailable indicates the request gave up waiting for a browser slot.
	KindUnavailable
)

// Error is an error with a Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithOp sets the operation that failed.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// New creates an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// BadRequest creates a bad request error.
func BadRequest(message string, err error) *Error {
	return Wrap(KindBadRequest, message, err)
}

// Internal creates an internal server error.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// StatusOf returns the HTTP status for any error. Errors that carry no
// *Error in their chain are internal failures.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
