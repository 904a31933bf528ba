package errors

import (
	"errors"
	"fmt"
)

// Common error kinds used across the taskpool library

var (
	// ErrPoolClosed indicates that an operation was attempted on a pool
	// that has begun or completed shutdown
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolSaturated indicates that the pending queue was full at
	// submission time
	ErrPoolSaturated = errors.New("pool saturated")

	// ErrWorkerCrashed indicates that a worker died while executing a task
	ErrWorkerCrashed = errors.New("worker crashed")

	// ErrTaskTimeout indicates that a task exceeded its deadline
	ErrTaskTimeout = errors.New("task timed out")

	// ErrPoolExhausted indicates that every worker died and none could
	// be replaced
	ErrPoolExhausted = errors.New("pool exhausted")

	// ErrLeaseReleased indicates that a worker lease was used after
	// being released
	ErrLeaseReleased = errors.New("lease already released")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IsRetryable returns true if the error indicates a condition that might
// be resolved by resubmitting the task
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPoolSaturated) || errors.Is(err, ErrTaskTimeout) || errors.Is(err, ErrWorkerCrashed)
}

// IsTemporary returns true if the error indicates a temporary condition
func IsTemporary(err error) bool {
	return errors.Is(err, ErrPoolSaturated) || errors.Is(err, ErrTaskTimeout)
}

// ValidationError provides detailed information about configuration
// validation failures.
type ValidationError struct {
	// Module is the taskpool package reporting the error (e.g., "pool")
	Module string

	// Field is the configuration field that failed validation
	Field string

	// Value is the invalid value that was provided
	Value interface{}

	// Reason describes why the value is invalid
	Reason string

	// Hint suggests how to fix the problem (optional)
	Hint string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so callers can use errors.Is
// to detect validation failures generically.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewValidationError creates a new ValidationError.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint adds a hint to the validation error and returns the same
// instance for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// IsValidationError returns true if the error is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// OperationError provides context about a failed operation within a
// taskpool component.
type OperationError struct {
	// Module is the taskpool package reporting the error (e.g., "pool")
	Module string

	// Operation is the operation that failed (e.g., "Submit")
	Operation string

	// Cause is the underlying error
	Cause error

	// Context provides additional detail about the failure (optional)
	Context string
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewOperationError creates a new OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext adds context to the operation error and returns the same
// instance for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}
