package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStateError verifies formatting and unwrapping of state errors.
func TestStateError(t *testing.T) {
	err := NewStateError("answer", "get", ErrKeyNotFound)

	assert.Contains(t, err.Error(), "operation=get", "Error string should name the operation.")
	assert.Contains(t, err.Error(), "key=answer", "Error string should name the key.")
	assert.True(t, errors.Is(err, ErrKeyNotFound), "StateError should unwrap to its cause.")
}

// TestValidationError verifies accumulation and formatting of validation
// failures.
func TestValidationError(t *testing.T) {
	err := NewValidationError("question set")
	assert.False(t, err.HasErrors(), "New validation error should start empty.")

	err.AddError("question 2: empty text")
	assert.True(t, err.HasErrors())
	assert.Equal(t, "validation error for question set: question 2: empty text", err.Error(),
		"Single-failure formatting mismatch.")

	err.AddError("question 5: empty ground truth")
	assert.Len(t, err.Errors, 2, "Failures should accumulate.")
	assert.Contains(t, err.Error(), "validation errors for question set", "Plural formatting mismatch.")
}
