package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during evaluation operations.
var (
	// ErrKeyNotFound indicates that a requested state key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrTypeMismatch indicates that a stored value's type doesn't match
	// the expected type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrEmptyValue indicates that a required value is empty or nil.
	ErrEmptyValue = errors.New("empty value")

	// ErrInvalidConfiguration indicates that configuration is invalid
	// or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrQueryFailed marks a model-call failure. Callers use it to
	// distinguish a collaborator that could not answer from pipeline
	// wiring errors, which must not be absorbed into results.
	ErrQueryFailed = errors.New("model query failed")
)

// StateError represents an error that occurred during a State operation.
// It records which key and operation caused the failure.
type StateError struct {
	// Key is the state entry involved in the failed operation.
	Key StateKey

	// Operation describes what was being performed when the error occurred.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As inspection.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key StateKey, operation string, err error) *StateError {
	return &StateError{Key: key, Operation: operation, Err: err}
}

// ValidationError represents a validation failure for a named entity,
// such as a question record or a configuration block. It can accumulate
// multiple failures so callers see everything wrong at once.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the individual validation failure messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError appends a new failure message.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors reports whether any failures were recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new, empty ValidationError for the entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Errors: make([]string, 0)}
}
