package units

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-caliper/internal/domain"
	"github.com/ahrav/go-caliper/internal/ports"
)

var _ ports.Unit = (*CalibrationUnit)(nil)

// CalibrationUnit aggregates a full sequence of per-question results into
// the single directional calibration score: average hedge score over
// incorrect answers minus average hedge score over correct answers. It
// runs exactly once per evaluation, after every per-question result
// exists; there are no partial or incremental updates.
//
// The empty-group policy (average defined as zero) and the resulting
// degenerate behavior on single-class result sets are part of the
// contract; see domain.Calibrate and domain.EmptyGroupAverage.
//
// Aggregation is O(n) single-pass arithmetic, stateless, and safe for
// concurrent execution.
type CalibrationUnit struct {
	name   string
	config CalibrationConfig
	tracer trace.Tracer
}

// CalibrationConfig controls aggregation behavior. The zero value accepts
// any result set, including an empty one (which scores 0 - 0 = 0).
type CalibrationConfig struct {
	// RequireResults rejects an empty result sequence with an error
	// instead of producing the degenerate zero score. Default: false.
	RequireResults bool `yaml:"require_results" json:"require_results"`
}

// NewCalibrationUnit creates a CalibrationUnit with validated
// configuration. The name must be non-empty.
func NewCalibrationUnit(name string, config CalibrationConfig) (*CalibrationUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	return &CalibrationUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("calibration-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (cu *CalibrationUnit) Name() string { return cu.name }

// Execute aggregates the result sequence held by the state.
//
// State requirements:
//   - domain.KeyResults: the full, final []domain.EvaluationResult
//
// Returns a new state containing domain.KeySummary. The aggregate is
// invariant under permutation of the result sequence.
func (cu *CalibrationUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := cu.tracer.Start(ctx, "CalibrationUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "calibration"),
			attribute.String("unit.id", cu.name),
		),
	)
	defer span.End()

	start := time.Now()

	results, ok := domain.Get(state, domain.KeyResults)
	if !ok {
		span.RecordError(ErrResultsMissing)
		return state, ErrResultsMissing
	}

	if cu.config.RequireResults && len(results) == 0 {
		err := fmt.Errorf("no results provided for calibration aggregation")
		span.RecordError(err)
		return state, err
	}

	summary := domain.Calibrate(results)

	span.SetAttributes(
		attribute.Float64("eval.calibration_score", summary.Score),
		attribute.Int("eval.correct", summary.Correct),
		attribute.Int("eval.incorrect", summary.Incorrect),
		attribute.Int("eval.query_failures", summary.QueryFailures),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
		attribute.Bool("no_llm_cost", true),
	)

	return domain.With(state, domain.KeySummary, &summary), nil
}

// Validate verifies the unit is properly configured and ready to execute.
func (cu *CalibrationUnit) Validate() error {
	if err := validate.Struct(cu.config); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the unit's
// config, replacing it only when decoding and validation both succeed.
func (cu *CalibrationUnit) UnmarshalParameters(params yaml.Node) error {
	var config CalibrationConfig

	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}

	cu.config = config
	return nil
}

// DefaultCalibrationConfig returns the contract-default configuration:
// empty result sets are accepted and score zero.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{RequireResults: false}
}
