// Package errors provides structured error types for bpm.
//
// Every failure that can happen while discovering, installing or removing a
// single package is expressed as an [*Error] carrying a machine-readable
// [Code]. Callers report these errors per package and continue; none of them
// is fatal to a run.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Missing remote package or local artifact
//   - *_FETCH_FAILED: Unexpected HTTP status from the package source
//   - NETWORK_ERROR: Transport failures (connection refused, timeout)
//
// # Usage
//
//	err := errors.NotFound("alpha")
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // report and continue
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidSource  Code = "INVALID_SOURCE"

	// Resource not found errors
	ErrCodePackageNotFound  Code = "PACKAGE_NOT_FOUND"
	ErrCodeArtifactNotFound Code = "ARTIFACT_NOT_FOUND"

	// Remote source errors
	ErrCodeMetadataFetch     Code = "METADATA_FETCH_FAILED"
	ErrCodeBinaryFetch       Code = "BINARY_FETCH_FAILED"
	ErrCodeMalformedMetadata Code = "MALFORMED_METADATA"
	ErrCodeNetwork           Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Package string // Package identifier the error refers to (optional)
	Status  int    // HTTP status for *_FETCH_FAILED codes (0 otherwise)
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

// NotFound reports that a package has no metadata document at the source.
func NotFound(pkg string) *Error {
	return &Error{
		Code:    ErrCodePackageNotFound,
		Message: fmt.Sprintf("%s: does not exist or could not be found", pkg),
		Package: pkg,
	}
}

// MetadataFetchFailed reports a non-OK, non-404 status for a metadata document.
func MetadataFetchFailed(pkg string, status int) *Error {
	return &Error{
		Code:    ErrCodeMetadataFetch,
		Message: fmt.Sprintf("%s: something went wrong. HTTP %d while fetching package data", pkg, status),
		Package: pkg,
		Status:  status,
	}
}

// BinaryFetchFailed reports a non-OK status while downloading a package binary.
func BinaryFetchFailed(pkg string, status int) *Error {
	return &Error{
		Code:    ErrCodeBinaryFetch,
		Message: fmt.Sprintf("HTTP %d; could not access package binaries", status),
		Package: pkg,
		Status:  status,
	}
}

// ArtifactNotFound reports that no installed artifact exists for pkg.
func ArtifactNotFound(pkg string) *Error {
	return &Error{
		Code:    ErrCodeArtifactNotFound,
		Message: "Could not find package, skipping",
		Package: pkg,
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

// GetStatus returns the HTTP status attached to err, or 0.
func GetStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
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
