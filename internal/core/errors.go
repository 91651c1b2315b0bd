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
	// Signal evaluation errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrInvalidInput  = &Error{Code: "INVALID_INPUT", Message: "invalid price input"}

	// Config errors
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Lookup errors
	ErrNotFound      = &Error{Code: "NOT_FOUND", Message: "resource not found"}
	ErrUnknownSymbol = &Error{Code: "UNKNOWN_SYMBOL", Message: "symbol is not tracked"}

	// Access errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid api key"}
	ErrForbidden    = &Error{Code: "FORBIDDEN", Message: "operation requires admin role"}

	// Collaborator errors
	ErrFeedFailed     = &Error{Code: "FEED_FAILED", Message: "price feed failed"}
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}
	ErrArchiveFailed  = &Error{Code: "ARCHIVE_FAILED", Message: "archive export failed"}
)
