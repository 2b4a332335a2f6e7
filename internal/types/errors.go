package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Wintermute engine errors.
type ErrorCode string

// Mission error codes
const (
	MISSION_PARSE_FAILED      ErrorCode = "MISSION_PARSE_FAILED"
	MISSION_VALIDATION_FAILED ErrorCode = "MISSION_VALIDATION_FAILED"
	MISSION_UNSAFE            ErrorCode = "MISSION_UNSAFE"
	MISSION_TIMEOUT           ErrorCode = "MISSION_TIMEOUT"
)

// Dependency graph error codes
const (
	GRAPH_DUPLICATE_STEP     ErrorCode = "GRAPH_DUPLICATE_STEP"
	GRAPH_MISSING_DEPENDENCY ErrorCode = "GRAPH_MISSING_DEPENDENCY"
	GRAPH_CYCLE_DETECTED     ErrorCode = "GRAPH_CYCLE_DETECTED"
)

// Step execution error codes
const (
	STEP_INVALID_PARAMS ErrorCode = "STEP_INVALID_PARAMS"
	STEP_TIMEOUT        ErrorCode = "STEP_TIMEOUT"
	STEP_POLICY_DENIED  ErrorCode = "STEP_POLICY_DENIED"
	STEP_EXEC_FAILED    ErrorCode = "STEP_EXEC_FAILED"
)

// Tool error codes
const (
	TOOL_NOT_FOUND      ErrorCode = "TOOL_NOT_FOUND"
	TOOL_ALREADY_EXISTS ErrorCode = "TOOL_ALREADY_EXISTS"
	TOOL_INVALID_INPUT  ErrorCode = "TOOL_INVALID_INPUT"
	TOOL_EXEC_FAILED    ErrorCode = "TOOL_EXEC_FAILED"
)

// Audit error codes
const (
	AUDIT_CHAIN_CORRUPT ErrorCode = "AUDIT_CHAIN_CORRUPT"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// CoreError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type CoreError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *CoreError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a CoreError with the same Code.
func (e *CoreError) Is(target error) bool {
	var coreErr *CoreError
	if errors.As(target, &coreErr) {
		return e.Code == coreErr.Code
	}
	return false
}

// NewError creates a new non-retryable CoreError with the given code and message.
func NewError(code ErrorCode, message string) *CoreError {
	return &CoreError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable CoreError with the given code and message.
// Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *CoreError {
	return &CoreError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable CoreError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *CoreError {
	return &CoreError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRetryable reports whether err (or any error in its chain) is a retryable CoreError.
func IsRetryable(err error) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Retryable
	}
	return false
}

// CodeOf extracts the ErrorCode from err if it is a CoreError, or "" otherwise.
func CodeOf(err error) ErrorCode {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return ""
}
