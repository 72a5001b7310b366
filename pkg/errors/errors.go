// Package errors provides structured error types for vardump.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and dump server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input or configuration validation failures
//   - *_NOT_FOUND: Resource not found
//   - UNCLASSIFIED_VALUE: No registered kind matches a value
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateKind, "kind %q already registered", name)
//	if errors.Is(err, errors.ErrCodeDuplicateKind) {
//	    // Handle registry misconfiguration
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "save snapshot %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Classification and registry errors
	ErrCodeUnclassified   Code = "UNCLASSIFIED_VALUE"
	ErrCodeDuplicateKind  Code = "DUPLICATE_KIND"
	ErrCodeInvalidKind    Code = "INVALID_KIND"
	ErrCodeRegistrySealed Code = "REGISTRY_SEALED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidQuery  Code = "INVALID_QUERY"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"

	// State errors
	ErrCodeStaleTree Code = "STALE_TREE"

	// Collaborator errors
	ErrCodeStore       Code = "STORE_ERROR"
	ErrCodeNoPopupHost Code = "NO_POPUP_HOST"

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

// coder is implemented by error types that carry a code without being *Error.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error, or any error exposing
// a Code() method, with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
