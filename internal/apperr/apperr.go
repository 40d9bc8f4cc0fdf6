// Package apperr defines the error taxonomy surfaced by the service layer:
// NotFound, Unauthorized, Conflict, Invalid and Internal. Handlers map each
// kind to an HTTP status; services never retry, these are terminal answers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid request")
	ErrInternal     = errors.New("internal error")
)

// Error carries a caller-facing message and unwraps to one of the kind
// sentinels so call sites can branch with errors.Is.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func NotFound(msg string) error     { return &Error{kind: ErrNotFound, msg: msg} }
func Unauthorized(msg string) error { return &Error{kind: ErrUnauthorized, msg: msg} }
func Invalid(msg string) error      { return &Error{kind: ErrInvalid, msg: msg} }

func Conflictf(format string, args ...any) error {
	return &Error{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// Internal hides the underlying cause from the caller; the wrapped error is
// for logs only.
func Internal(msg string, cause error) error {
	if cause != nil {
		return &Error{kind: ErrInternal, msg: fmt.Sprintf("%s: %v", msg, cause)}
	}
	return &Error{kind: ErrInternal, msg: msg}
}
