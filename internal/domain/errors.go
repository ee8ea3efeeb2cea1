package domain

import (
	"errors"
	"fmt"
	"time"
)

// AppError represents a domain-specific error with structured information and context
type AppError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation,omitempty"`
	Cause     error     `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error wrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithOperation records the operation that produced the error
func (e *AppError) WithOperation(operation string) *AppError {
	e.Operation = operation
	return e
}

// Error codes for different error categories
const (
	// Load errors abort the run
	ErrSpecNotFound      = "SPEC_NOT_FOUND"
	ErrMalformedSpec     = "MALFORMED_SPEC"
	ErrPluginDirNotFound = "PLUGIN_DIR_NOT_FOUND"

	// Validation errors abort the run after all rules were checked
	ErrValidationFailed = "VALIDATION_FAILED"

	// Per-platform errors are isolated to that platform
	ErrNotImplemented    = "NOT_IMPLEMENTED"
	ErrUnknownPlatform   = "UNKNOWN_PLATFORM"
	ErrGenerationFailed  = "GENERATION_FAILED"
	ErrManifestInvalid   = "MANIFEST_INVALID"
	ErrAlreadyRun        = "ALREADY_RUN"
	ErrInternal          = "INTERNAL_ERROR"
	ErrRepositoryFailure = "REPOSITORY_FAILURE"
)

// NewAppError creates a new AppError with the specified parameters
func NewAppError(code, message string, details any) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// NewAppErrorWithCause creates a new AppError with underlying cause
func NewAppErrorWithCause(code, message string, cause error, details any) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// HasCode reports whether err, or any error it wraps, is an AppError with the given code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsSpecNotFound checks if the error is a missing specification error
func IsSpecNotFound(err error) bool {
	return HasCode(err, ErrSpecNotFound)
}

// IsMalformedSpec checks if the error is a specification parse error
func IsMalformedSpec(err error) bool {
	return HasCode(err, ErrMalformedSpec)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return HasCode(err, ErrValidationFailed)
}

// IsNotImplemented checks if the error comes from an adapter without a file structure
func IsNotImplemented(err error) bool {
	return HasCode(err, ErrNotImplemented)
}
