// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Backend errors
	ErrBackendStatus = &Error{Code: "BACKEND_STATUS", Message: "backend returned non-success status"}
	ErrBackendFailed = &Error{Code: "BACKEND_FAILED", Message: "backend request failed"}
	ErrDecodeFailed  = &Error{Code: "DECODE_FAILED", Message: "could not decode backend response"}
	ErrNoData        = &Error{Code: "NO_DATA", Message: "no data available"}

	// Rendering errors
	ErrRegionNotFound = &Error{Code: "REGION_NOT_FOUND", Message: "region not found"}
	ErrRenderFailed   = &Error{Code: "RENDER_FAILED", Message: "render failed"}

	// Request errors
	ErrCSRFFailed = &Error{Code: "CSRF_FAILED", Message: "CSRF token missing or incorrect"}

	// Storage errors
	ErrArchiveFailed   = &Error{Code: "ARCHIVE_FAILED", Message: "archive write failed"}
	ErrArchiveNotFound = &Error{Code: "ARCHIVE_NOT_FOUND", Message: "archived run not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

// StatusError carries the HTTP status and body of a failed backend call.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}
