// Package apperr defines the error kinds shared by services and the
// HTTP layer. Services wrap failures with a kind; the HTTP layer maps
// kinds to status codes without inspecting error text.
package apperr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindUnauthorized
	KindPaymentRequired
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Error carries a kind alongside a message and an optional cause.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Invalid reports a request the caller can fix.
func Invalid(format string, args ...any) *Error {
	return newf(KindInvalid, format, args...)
}

// Unauthorized reports a missing or unusable credential.
func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

// PaymentRequired reports an operation blocked by subscription state.
func PaymentRequired(format string, args ...any) *Error {
	return newf(KindPaymentRequired, format, args...)
}

// Forbidden reports a caller acting outside its role or store.
func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

// NotFound reports a missing record.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// Conflict reports a uniqueness or state collision.
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Internal wraps an unexpected failure that is not the caller's fault.
func Internal(msg string, err error) *Error {
	return &Error{kind: KindInternal, msg: msg, err: err}
}

// Wrap attaches a kind and message to err, preserving the chain.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf walks the error chain and returns its classification. The
// storage sentinels classify directly, so services can pass store
// errors through untouched. Unclassified errors report KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return KindNotFound
	case errors.Is(err, storage.ErrDuplicate), errors.Is(err, storage.ErrInsufficientStock):
		return KindConflict
	}
	return KindUnknown
}

// IsNotFound reports whether err classifies as a missing record.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err classifies as a collision.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
