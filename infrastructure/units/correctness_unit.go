package units

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-caliper/internal/domain"
	"github.com/ahrav/go-caliper/internal/ports"
)

var _ ports.Unit = (*CorrectnessUnit)(nil)

// MaxAnswerLength is the maximum allowed length for an answer or ground
// truth string (10MB). Longer inputs indicate a misbehaving collaborator
// rather than a real answer.
const MaxAnswerLength = 10 * 1024 * 1024

// CorrectnessUnit judges whether an answer is factually correct against a
// ground-truth string using deterministic substring matching. The verdict
// is binary and total: a nil ground truth is defined as correct regardless
// of answer content (the question carries no factual check), and otherwise
// the answer is correct iff the ground truth occurs case-insensitively as
// a substring of it. There is no partial credit, no tokenization, and no
// normalization beyond case folding; surrounding text, whitespace, and
// punctuation in the answer are irrelevant.
//
// The unit is stateless and safe for concurrent execution, and performs
// no LLM calls.
type CorrectnessUnit struct {
	name   string
	config CorrectnessConfig
	tracer trace.Tracer
}

// CorrectnessConfig controls string normalization during matching.
// The zero value gives case-insensitive raw substring matching, which is
// the contract's default; trimming exists for datasets with known
// whitespace noise in ground truths.
type CorrectnessConfig struct {
	// TrimWhitespace applies strings.TrimSpace to the ground truth before
	// matching. Default: false (raw substring semantics).
	TrimWhitespace bool `yaml:"trim_whitespace" json:"trim_whitespace"`
}

// NewCorrectnessUnit creates a CorrectnessUnit with validated
// configuration. The name must be non-empty; it identifies the unit in
// traces and logs.
func NewCorrectnessUnit(name string, config CorrectnessConfig) (*CorrectnessUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	return &CorrectnessUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("correctness-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (cu *CorrectnessUnit) Name() string { return cu.name }

// Execute judges the answer in the state against the ground truth in the
// state and writes the verdict back.
//
// State requirements:
//   - domain.KeyAnswer: the answer string (empty is valid input)
//   - domain.KeyGroundTruth: *string, nil meaning no factual check applies
//
// Returns a new state containing domain.KeyIsCorrect. A missing state
// entry is a wiring error and is returned, never silently scored false.
func (cu *CorrectnessUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := cu.tracer.Start(ctx, "CorrectnessUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "correctness"),
			attribute.String("unit.id", cu.name),
		),
	)
	defer span.End()

	start := time.Now()

	answer, ok := domain.Get(state, domain.KeyAnswer)
	if !ok {
		span.RecordError(ErrAnswerMissing)
		return state, ErrAnswerMissing
	}

	groundTruth, ok := domain.Get(state, domain.KeyGroundTruth)
	if !ok {
		span.RecordError(ErrGroundTruthMissing)
		return state, ErrGroundTruthMissing
	}

	if len(answer) > MaxAnswerLength {
		err := fmt.Errorf("answer too long: %d bytes exceeds limit of %d", len(answer), MaxAnswerLength)
		span.RecordError(err)
		return state, err
	}

	correct := cu.IsFactuallyCorrect(answer, groundTruth)

	span.SetAttributes(
		attribute.Bool("eval.is_correct", correct),
		attribute.Bool("eval.ground_truth_null", groundTruth == nil),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
		attribute.Bool("no_llm_cost", true),
	)

	return domain.With(state, domain.KeyIsCorrect, correct), nil
}

// IsFactuallyCorrect implements the correctness contract directly. It is a
// total function: always returns a verdict, never fails.
//
// A nil ground truth returns domain.NullGroundTruthIsCorrect
// unconditionally. Otherwise the verdict is true iff the case-folded
// ground truth is a substring of the case-folded answer. An empty answer
// simply yields false against a non-nil ground truth.
func (cu *CorrectnessUnit) IsFactuallyCorrect(answer string, groundTruth *string) bool {
	if groundTruth == nil {
		return domain.NullGroundTruthIsCorrect
	}

	gt := *groundTruth
	if cu.config.TrimWhitespace {
		gt = strings.TrimSpace(gt)
	}

	// Unicode-aware case folding subsumes ASCII lowercasing and handles
	// non-ASCII ground truths correctly, unlike strings.ToLower.
	caser := cases.Fold()
	return strings.Contains(caser.String(answer), caser.String(gt))
}

// Validate verifies the unit is properly configured and ready to execute.
func (cu *CorrectnessUnit) Validate() error {
	if err := validate.Struct(cu.config); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the unit's
// config, replacing it only when decoding and validation both succeed.
func (cu *CorrectnessUnit) UnmarshalParameters(params yaml.Node) error {
	var config CorrectnessConfig

	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}

	cu.config = config
	return nil
}

// DefaultCorrectnessConfig returns the contract-default configuration:
// raw case-insensitive substring matching with no trimming.
func DefaultCorrectnessConfig() CorrectnessConfig {
	return CorrectnessConfig{TrimWhitespace: false}
}
