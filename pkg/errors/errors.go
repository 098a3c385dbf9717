// Package errors provides structured error types for the gym diary
// catalog services.
//
// Catalog loading, catalog sources, selection sessions and the handoff
// adapters report failures with these types so callers can branch on a
// stable code. Engine query functions never return errors; they follow
// the empty-result / "Invalid archetype" convention instead.
package errors

import (
	"fmt"
)

// ErrorCode represents a unique error identifier for categorization.
type ErrorCode string

// Common error codes used throughout the module.
const (
	// Catalog errors
	CodeCatalogParse   ErrorCode = "CATALOG_PARSE"
	CodeCatalogInvalid ErrorCode = "CATALOG_INVALID"
	CodeCatalogSource  ErrorCode = "CATALOG_SOURCE"

	// Lookup errors
	CodeArchetypeNotFound ErrorCode = "ARCHETYPE_NOT_FOUND"
	CodeAttributeNotFound ErrorCode = "ATTRIBUTE_NOT_FOUND"
	CodeValueTypeMismatch ErrorCode = "VALUE_TYPE_MISMATCH"

	// Selection errors
	CodeSelectionInvalid ErrorCode = "SELECTION_INVALID"

	// Infrastructure errors
	CodeStorageError ErrorCode = "STORAGE_ERROR"
	CodePubSubError  ErrorCode = "PUBSUB_ERROR"

	// General errors
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternalError   ErrorCode = "INTERNAL_ERROR"
)

// DiaryError is the base error type for the module.
// It carries an error code, retry semantics and contextual metadata.
type DiaryError struct {
	Code      ErrorCode         // Unique error code for categorization
	Message   string            // Human-readable error message
	Cause     error             // Underlying error (if any)
	Retryable bool              // Whether the operation can be retried
	Metadata  map[string]string // Additional context
}

// Error implements the error interface.
func (e *DiaryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *DiaryError) Unwrap() error {
	return e.Cause
}

// Is matches on error code, so a sentinel decorated with WithMessage or
// WithMetadata still satisfies errors.Is against the bare sentinel.
func (e *DiaryError) Is(target error) bool {
	t, ok := target.(*DiaryError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DiaryError) WithCause(cause error) *DiaryError {
	return &DiaryError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMessage adds a custom message.
func (e *DiaryError) WithMessage(msg string) *DiaryError {
	return &DiaryError{
		Code:      e.Code,
		Message:   msg,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMetadata adds contextual metadata.
func (e *DiaryError) WithMetadata(key, value string) *DiaryError {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	return &DiaryError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  meta,
	}
}

// Pre-defined sentinel errors for common cases.
// Use these with errors.Is() or wrap them with .WithCause().
var (
	// Catalog errors
	ErrCatalogParse   = &DiaryError{Code: CodeCatalogParse, Message: "malformed catalog document", Retryable: false}
	ErrCatalogInvalid = &DiaryError{Code: CodeCatalogInvalid, Message: "invalid catalog document", Retryable: false}
	ErrCatalogSource  = &DiaryError{Code: CodeCatalogSource, Message: "catalog source unavailable", Retryable: true}

	// Lookup errors
	ErrArchetypeNotFound = &DiaryError{Code: CodeArchetypeNotFound, Message: "archetype not found", Retryable: false}
	ErrAttributeNotFound = &DiaryError{Code: CodeAttributeNotFound, Message: "attribute not found", Retryable: false}
	ErrValueTypeMismatch = &DiaryError{Code: CodeValueTypeMismatch, Message: "value does not match attribute type", Retryable: false}

	// Selection errors
	ErrSelectionInvalid = &DiaryError{Code: CodeSelectionInvalid, Message: "selection is not a valid combination", Retryable: false}

	// Infrastructure errors
	ErrStorageError = &DiaryError{Code: CodeStorageError, Message: "storage error", Retryable: true}
	ErrPubSubError  = &DiaryError{Code: CodePubSubError, Message: "pubsub error", Retryable: true}

	// General errors
	ErrValidation = &DiaryError{Code: CodeValidationError, Message: "validation error", Retryable: false}
	ErrInternal   = &DiaryError{Code: CodeInternalError, Message: "internal error", Retryable: false}
)

// New creates a new DiaryError with the given code and message.
func New(code ErrorCode, message string) *DiaryError {
	return &DiaryError{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// Wrap wraps an error with a DiaryError.
func Wrap(cause error, code ErrorCode, message string) *DiaryError {
	return &DiaryError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: false,
	}
}

// WrapRetryable wraps an error with a retryable DiaryError.
func WrapRetryable(cause error, code ErrorCode, message string) *DiaryError {
	return &DiaryError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if dErr, ok := err.(*DiaryError); ok {
		return dErr.Retryable
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if dErr, ok := err.(*DiaryError); ok {
		return dErr.Code
	}
	return CodeInternalError
}
