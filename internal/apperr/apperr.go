// Package apperr provides coded errors shared by the service and HTTP layers.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies an error condition.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeIdentityCollision Code = "IDENTITY_COLLISION"
	CodeLocked            Code = "LOCKED"
	CodeStorage           Code = "STORAGE_ERROR"
	CodeImport            Code = "IMPORT_ERROR"
)

// Error is a coded error with an optional cause and structured details.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Details: map[string]any{}}
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates an error that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Details: map[string]any{}}
}

// WithDetail adds one detail and returns e.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// NotFound creates a NOT_FOUND error for a named resource.
func NotFound(kind, name string) *Error {
	return Newf(CodeNotFound, "%s %q not found", kind, name).
		WithDetail("resource_type", kind).
		WithDetail("name", name)
}
