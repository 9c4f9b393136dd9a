// Package domainerrors provides coded errors for the service layer. Stores
// return sentinel errors (pkg/platform/sentinel); services wrap them here so
// transports can map codes to protocol status without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and metrics labels.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeExpired      Code = "expired"
	CodeInternal     Code = "internal_error"
)

// Error carries a code, a caller-facing message, and an optional cause.
type Error struct {
	code    Code
	message string
	cause   error
}

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying error. A nil cause
// returns nil so call sites can wrap unconditionally.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Message returns the caller-facing message without the cause chain.
func (e *Error) Message() string {
	return e.message
}

// GetCode returns the code attached to e.
func (e *Error) GetCode() Code {
	return e.code
}

// GetCode extracts the code from any error in err's chain, defaulting to
// CodeInternal for uncoded errors.
func GetCode(err error) Code {
	var domErr *Error
	if errors.As(err, &domErr) {
		return domErr.code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}
