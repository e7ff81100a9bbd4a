// Package errors provides structured error types for typescout.
//
// This package defines error codes and types that enable:
//   - Consistent error handling between the engine and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - MANIFEST_*: package.json could not be loaded
//   - INVALID_*: Input validation failures
//   - REGISTRY_* / NETWORK_*: Registry and network failures
//   - INSTALLATION_*: Package manager failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPackage, "invalid package name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidPackage) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeManifestParse, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Manifest errors abort a run before any network activity.
	ErrCodeManifestNotFound Code = "MANIFEST_NOT_FOUND"
	ErrCodeManifestParse    Code = "MANIFEST_PARSE_ERROR"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidManager Code = "INVALID_MANAGER"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Registry and network errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeRegistry    Code = "REGISTRY_QUERY_FAILED"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Installation errors
	ErrCodeInstallation Code = "INSTALLATION_FAILED"

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

// InstallError describes a failed package manager invocation.
// It is always returned wrapped in an *Error with [ErrCodeInstallation].
type InstallError struct {
	Command  []string // argv of the invocation
	Dir      string   // working directory
	ExitCode int      // -1 when the process could not be started
	Stdout   string
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	cmd := strings.Join(e.Command, " ")
	if e.ExitCode < 0 {
		return fmt.Sprintf("%q could not be started: %v", cmd, e.Err)
	}
	return fmt.Sprintf("%q exited with status %d", cmd, e.ExitCode)
}

// Unwrap returns the underlying process error.
func (e *InstallError) Unwrap() error { return e.Err }

// Output returns the captured stdout and stderr, trimmed and joined.
func (e *InstallError) Output() string {
	var parts []string
	for _, s := range []string{e.Stdout, e.Stderr} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
