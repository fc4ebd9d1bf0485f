// Package dataset loads and validates the question set the calibration
// evaluator runs over.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-caliper/internal/domain"
)

// QuestionSet is the on-disk form of the input file: an ordered list of
// question records. Order is preserved through loading because report
// output follows input order.
type QuestionSet struct {
	// Questions holds the records in file order.
	Questions []domain.Question `json:"questions"`

	// Metadata describes the question set itself.
	Metadata Metadata `json:"metadata,omitempty"`
}

// Metadata carries provenance information about a question set.
type Metadata struct {
	// Name identifies the question set.
	Name string `json:"name,omitempty"`

	// Source indicates where the questions originated.
	Source string `json:"source,omitempty"`

	// Description provides details about the contents.
	Description string `json:"description,omitempty"`
}

// Load reads a question set from a JSON file and validates its structure.
// The file may be either a QuestionSet document or a bare JSON array of
// question records.
//
// Malformed records are a configuration error: they surface here, before
// any evaluation runs, rather than being masked as incorrect answers
// downstream.
func Load(path string) (*QuestionSet, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read question set: %w", err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return set, nil
}

// Parse decodes a question set from JSON bytes, accepting both the
// wrapped document form and a bare array of records.
func Parse(data []byte) (*QuestionSet, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	var set QuestionSet
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &set.Questions); err != nil {
			return nil, fmt.Errorf("failed to parse question list: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse question set: %w", err)
		}
	}

	if err := Validate(&set); err != nil {
		return nil, err
	}

	return &set, nil
}

// Validate checks a question set for structural problems, accumulating
// everything wrong so the operator sees all defects at once.
func Validate(set *QuestionSet) error {
	if set == nil {
		return fmt.Errorf("question set is nil")
	}

	verr := domain.NewValidationError("question set")
	if len(set.Questions) == 0 {
		verr.AddError("must contain at least one question")
	}

	for i, q := range set.Questions {
		if strings.TrimSpace(q.Question) == "" {
			verr.AddError(fmt.Sprintf("question %d: empty question text", i))
		}
		// A present-but-empty ground truth matches every answer, which
		// is almost certainly a data error rather than intent; nil is
		// the way to mark "no factual check".
		if q.GroundTruth != nil && *q.GroundTruth == "" {
			verr.AddError(fmt.Sprintf("question %d: ground_truth is empty; use null for unverifiable questions", i))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Save writes a question set to a JSON file, creating parent directories
// as needed. Used by tooling that assembles question sets.
func Save(set *QuestionSet, path string) error {
	if err := Validate(set); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal question set: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write question set: %w", err)
	}

	return nil
}
