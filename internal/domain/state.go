package domain

import "maps"

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating runtime type assertions at call sites.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// It exists for callers that need keys beyond the predefined set, such as
// tests exercising the pipeline with synthetic values.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// StateKey is the untyped name of a state entry, used in error reporting.
type StateKey = string

// Predefined state keys used throughout the evaluation pipeline.
// Each key is strongly typed so misuse fails at compile time.
var (
	// KeyQuestion stores the question text sent to the model.
	KeyQuestion = Key[string]{"question"}

	// KeyGroundTruth stores the reference answer for the current question,
	// or nil when no factual check applies.
	KeyGroundTruth = Key[*string]{"ground_truth"}

	// KeyAnswerable stores the question's answerable flag.
	KeyAnswerable = Key[bool]{"answerable"}

	// KeyAnswer stores the model's answer string for the current question.
	KeyAnswer = Key[string]{"answer"}

	// KeyQueryFailed marks that the model-query collaborator failed and
	// KeyAnswer holds the sentinel empty answer.
	KeyQueryFailed = Key[bool]{"query_failed"}

	// KeyIsCorrect stores the correctness verdict for the current question.
	KeyIsCorrect = Key[bool]{"is_correct"}

	// KeyHedgeScore stores the hedge-marker occurrence count for the
	// current answer.
	KeyHedgeScore = Key[int]{"hedge_score"}

	// KeyResults stores the accumulated per-question results for the
	// aggregation pass.
	KeyResults = Key[[]EvaluationResult]{"results"}

	// KeySummary stores the aggregate calibration summary once computed.
	KeySummary = Key[*CalibrationSummary]{"summary"}

	// KeyModel stores the model identifier for tracing and reporting.
	KeyModel = Key[string]{"execution.model"}
)

// copyValue returns a copy of a stored value deep enough that callers
// cannot mutate State internals through it. The state's value set is
// closed (strings, bools, ints, pointers to immutable-by-convention
// structs, and result slices), so a small type switch suffices.
func copyValue(value any) any {
	switch v := value.(type) {
	case []EvaluationResult:
		out := make([]EvaluationResult, len(v))
		copy(out, v)
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case *string:
		if v == nil {
			return (*string)(nil)
		}
		s := *v
		return &s
	case *CalibrationSummary:
		if v == nil {
			return (*CalibrationSummary)(nil)
		}
		s := *v
		return &s
	default:
		return value
	}
}

// State is an immutable collection of evaluation data flowing through the
// per-question pipeline. It uses copy-on-write semantics: every write
// returns a new State and the original is never modified, so a State can
// be freely shared between units.
type State struct {
	data map[string]any
}

// NewState creates a new empty State, ready for use.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists and
// holds a value of the correct type. Reference-typed values are copied so
// the caller cannot mutate the State through them.
//
// Example:
//
//	answer, ok := Get(state, KeyAnswer)
//	if !ok {
//	    // handle missing value
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	raw, ok := s.data[key.name]
	if !ok {
		return zero, false
	}
	val, ok := copyValue(raw).(T)
	if !ok {
		return zero, false
	}
	return val, true
}

// With returns a new State containing all existing entries plus the given
// key/value pair. The receiver is unchanged.
func With[T any](s State, key Key[T], value T) State {
	data := make(map[string]any, len(s.data)+1)
	maps.Copy(data, s.data)
	data[key.name] = copyValue(value)
	return State{data: data}
}

// Len returns the number of entries in the State.
func (s State) Len() int { return len(s.data) }

// Keys returns the names of all entries currently in the State.
// Intended for debugging and error reporting; ordering is unspecified.
func (s State) Keys() []StateKey {
	keys := make([]StateKey, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
