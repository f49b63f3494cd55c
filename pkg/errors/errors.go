// Package errors provides structured error types for the demazure module.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so that adapters (the CLI, the HTTP server) can react to the kind of
// failure without parsing messages:
//
//   - INVALID_*: malformed caller input (generators, permutations, words)
//   - UNKNOWN_ELEMENT: a well-formed permutation of the wrong size for n
//   - STORE_UNAVAILABLE, LOCK_TIMEOUT: the persistent store cannot be used
//   - RESOURCE_EXHAUSTED: an enumeration or search exceeded its configured budget
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGenerator, "generator %d outside 0..%d", i, n-1)
//	if errors.Is(err, errors.ErrCodeInvalidGenerator) {
//	    // reject the request
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStoreUnavailable, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidGenerator   Code = "INVALID_GENERATOR"
	ErrCodeInvalidPermutation Code = "INVALID_PERMUTATION"
	ErrCodeInvalidWord        Code = "INVALID_WORD"
	ErrCodeUnknownElement     Code = "UNKNOWN_ELEMENT"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Storage errors
	ErrCodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	ErrCodeLockTimeout      Code = "LOCK_TIMEOUT"

	// Budget errors
	ErrCodeResourceExhausted Code = "RESOURCE_EXHAUSTED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the whole chain, so a coded error wrapped by fmt.Errorf or by
// another *Error with a different code is still found.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the chain holds no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil && GetCode(e.Cause) == "" {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsInvalidInput reports whether err stems from malformed caller input
// rather than from the store or a budget.
func IsInvalidInput(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidGenerator, ErrCodeInvalidPermutation,
		ErrCodeInvalidWord, ErrCodeUnknownElement:
		return true
	}
	return false
}
