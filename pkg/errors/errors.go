// Package errors provides structured error types for the beautycanvas core.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the failure taxonomy of the enhancement pipeline:
//   - VALIDATION: synchronous input failures (unknown slot, missing geometry)
//   - TRANSIENT_REMOTE: the remote queue hiccuped; the job is still in flight
//   - PERMANENT_REMOTE: the remote queue rejected the job for good
//   - TIMEOUT: the job exceeded the polling ceiling
//   - UPLOAD_FAILED: durable-storage upload aborted a save
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "no geometry for slot %q", slotID)
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUploadFailed, origErr, "upload %s", path)
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
	ErrCodeValidation Code = "VALIDATION"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeJobNotFound     Code = "JOB_NOT_FOUND"
	ErrCodeProjectNotFound Code = "PROJECT_NOT_FOUND"

	// Remote enhancement queue errors
	ErrCodeTransientRemote Code = "TRANSIENT_REMOTE"
	ErrCodePermanentRemote Code = "PERMANENT_REMOTE"
	ErrCodeTimeout         Code = "TIMEOUT"

	// Persistence errors
	ErrCodeUploadFailed Code = "UPLOAD_FAILED"

	// Credit metering errors
	ErrCodeInsufficientCredits Code = "INSUFFICIENT_CREDITS"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
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
		return e.Message
	}
	return err.Error()
}

// RemoteStatusError carries the HTTP status code returned by the remote
// enhancement queue, for permanently failed jobs where the status code is
// the only diagnostic the remote provides.
type RemoteStatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RemoteStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote status %d", e.StatusCode)
}
