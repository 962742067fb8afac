// Package errors defines the coded errors used across the inventory
// collectors, the snapshot writer and the history store.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a failure so callers can decide how to degrade.
type ErrorCode string

const (
	// ErrCodeToolMissing indicates a native tool is not on PATH.
	ErrCodeToolMissing ErrorCode = "TOOL_MISSING"
	// ErrCodeToolFailed indicates a native tool ran but exited non-zero or could not be spawned.
	ErrCodeToolFailed ErrorCode = "TOOL_FAILED"
	// ErrCodeNoData indicates a tool ran but nothing could be parsed from its output.
	ErrCodeNoData ErrorCode = "NO_DATA"
	// ErrCodeUnsupportedPlatform indicates the host OS has no collection strategy.
	ErrCodeUnsupportedPlatform ErrorCode = "UNSUPPORTED_PLATFORM"
	// ErrCodeRegistryKeyNotFound indicates a Windows registry key could not be opened.
	ErrCodeRegistryKeyNotFound ErrorCode = "REGISTRY_KEY_NOT_FOUND"
	// ErrCodeIO indicates a file system failure while persisting output.
	ErrCodeIO ErrorCode = "IO"
	// ErrCodeNotFound indicates a requested record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidRequest indicates malformed input.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// StructuredError carries a code, a human-readable message, the underlying
// cause and optional debugging context.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the code of the first StructuredError in err's chain, or
// the empty code when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var se *StructuredError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Cause
	}
	return false
}

// Summary renders err without its code, for the reserved error field of a
// sentinel record. A missing tool is reported by its message alone.
func Summary(err error) string {
	var se *StructuredError
	if !stderrors.As(err, &se) {
		return err.Error()
	}
	if se.Cause == nil || se.Code == ErrCodeToolMissing {
		return se.Message
	}
	return fmt.Sprintf("%s: %v", se.Message, se.Cause)
}
