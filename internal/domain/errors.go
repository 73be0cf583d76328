// Package domain defines core types, interfaces, and errors for querydesk.
package domain

import "fmt"

// Stable machine-readable error codes surfaced to callers.
const (
	CodeNotFound     = "RESOURCE_NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeLinkConflict = "LINK_CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeInternal     = "INTERNAL_ERROR"
)

// NotFoundError indicates a referenced resource does not exist in scope.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// Code returns the stable error code for NotFoundError.
func (e *NotFoundError) Code() string { return CodeNotFound }

// ValidationError indicates invalid input or a rejected state transition.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Code returns the stable error code for ValidationError.
func (e *ValidationError) Code() string { return CodeValidation }

// LinkConflictError indicates a remote key already claimed by another saved query.
type LinkConflictError struct {
	Message string
}

func (e *LinkConflictError) Error() string { return e.Message }

// Code returns the stable error code for LinkConflictError.
func (e *LinkConflictError) Code() string { return CodeLinkConflict }

// InvalidStateError indicates an operation that does not apply to the
// entity's current state.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

// Code returns the stable error code for InvalidStateError.
func (e *InvalidStateError) Code() string { return CodeInvalidState }

// InternalError indicates an unexpected failure. The message is always
// generic — internals such as decryption detail are never exposed.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return e.Message }

// Code returns the stable error code for InternalError.
func (e *InternalError) Code() string { return CodeInternal }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrLinkConflict creates a LinkConflictError with a formatted message.
func ErrLinkConflict(format string, args ...interface{}) *LinkConflictError {
	return &LinkConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidState creates an InvalidStateError with a formatted message.
func ErrInvalidState(format string, args ...interface{}) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// ErrInternal creates an InternalError with a formatted message.
func ErrInternal(format string, args ...interface{}) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}
