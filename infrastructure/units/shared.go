// Package units provides the evaluation units that implement the
// ports.Unit interface for the calibration evaluator: model query,
// correctness judging, hedge detection, and calibration aggregation.
package units

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Common errors returned by evaluation units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with
	// an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrQuestionMissing is returned when the question is absent from
	// the state.
	ErrQuestionMissing = errors.New("question not found in state")

	// ErrQuestionEmpty is returned when the question text is empty.
	ErrQuestionEmpty = errors.New("question cannot be empty")

	// ErrAnswerMissing is returned when the answer is absent from the
	// state. An empty answer is valid input to the scoring units; a
	// missing one is a pipeline wiring bug and is surfaced, not masked
	// as a false/zero score.
	ErrAnswerMissing = errors.New("answer not found in state")

	// ErrGroundTruthMissing is returned when the ground-truth entry is
	// absent from the state. A nil ground truth is a valid value with
	// defined semantics; a missing entry is a wiring bug.
	ErrGroundTruthMissing = errors.New("ground truth not found in state")

	// ErrResultsMissing is returned when the aggregation unit finds no
	// result sequence in the state.
	ErrResultsMissing = errors.New("results not found in state")

	// ErrLLMClientNil is returned when a unit requiring an LLM client is
	// constructed without one.
	ErrLLMClientNil = errors.New("LLM client cannot be nil")

	// ErrConfigValidation wraps configuration validation failures.
	ErrConfigValidation = errors.New("configuration validation failed")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
