package units

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-caliper/internal/domain"
	"github.com/ahrav/go-caliper/internal/ports"
)

var _ ports.Unit = (*HedgeUnit)(nil)

// defaultHedgeMarkers is the reference set of hedge words and phrases.
// The list is configuration data, not derived at runtime; tests substitute
// smaller controlled sets through HedgeConfig.
var defaultHedgeMarkers = []string{
	"might",
	"could",
	"may",
	"possibly",
	"probably",
	"perhaps",
	"seems",
	"appears",
	"suggests",
	"indicates",
	"i'm not sure",
	"it is believed that",
	"unsure",
	"uncertain",
	"speculative",
	"potential",
	"it's possible",
	"one might argue",
}

// HedgeUnit counts occurrences of hedge-language markers in an answer.
// Matching is raw substring per marker against the lowercased answer: no
// stemming and no word-boundary enforcement, so multi-word phrases like
// "i'm not sure" match as a unit and short words like "may" match as
// literal substrings, including inside longer words such as "mayor".
// Every occurrence counts additively, overlapping occurrences included,
// with no upper bound.
//
// The unit is a pure function of the answer text and its fixed marker
// set, stateless and safe for concurrent execution.
type HedgeUnit struct {
	name   string
	config HedgeConfig
	// markers holds the lowercased marker set, prepared once at
	// construction so Execute does no per-call normalization.
	markers []string
	tracer  trace.Tracer
}

// HedgeConfig holds the marker set for hedge detection. The set is
// immutable after unit creation; changing it requires a new unit.
type HedgeConfig struct {
	// Markers is the list of hedge words and phrases to count.
	// Entries are matched case-insensitively as raw substrings.
	Markers []string `yaml:"markers" json:"markers" validate:"required,min=1,dive,min=1"`
}

// NewHedgeUnit creates a HedgeUnit with the given marker configuration.
// The name must be non-empty and the marker list non-empty; markers are
// lowercased once here so scoring never depends on the configured casing.
func NewHedgeUnit(name string, config HedgeConfig) (*HedgeUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	markers := make([]string, len(config.Markers))
	for i, m := range config.Markers {
		markers[i] = strings.ToLower(m)
	}

	return &HedgeUnit{
		name:    name,
		config:  config,
		markers: markers,
		tracer:  otel.Tracer("hedge-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (hu *HedgeUnit) Name() string { return hu.name }

// Execute counts hedge markers in the answer held by the state.
//
// State requirements:
//   - domain.KeyAnswer: the answer string (empty is valid and scores 0
//     unless a marker is the empty string, which validation forbids)
//
// Returns a new state containing domain.KeyHedgeScore.
func (hu *HedgeUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := hu.tracer.Start(ctx, "HedgeUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "hedge"),
			attribute.String("unit.id", hu.name),
			attribute.Int("config.markers", len(hu.markers)),
		),
	)
	defer span.End()

	start := time.Now()

	answer, ok := domain.Get(state, domain.KeyAnswer)
	if !ok {
		span.RecordError(ErrAnswerMissing)
		return state, ErrAnswerMissing
	}

	if len(answer) > MaxAnswerLength {
		err := fmt.Errorf("answer too long: %d bytes exceeds limit of %d", len(answer), MaxAnswerLength)
		span.RecordError(err)
		return state, err
	}

	score := hu.HedgeScore(answer)

	span.SetAttributes(
		attribute.Int("eval.hedge_score", score),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
		attribute.Bool("no_llm_cost", true),
	)

	return domain.With(state, domain.KeyHedgeScore, score), nil
}

// HedgeScore returns the total number of marker occurrences in the
// answer. It is a total function: any string, including the empty string,
// yields a non-negative count.
func (hu *HedgeUnit) HedgeScore(answer string) int {
	lowered := strings.ToLower(answer)

	score := 0
	for _, marker := range hu.markers {
		score += countOccurrences(lowered, marker)
	}
	return score
}

// countOccurrences counts every occurrence of substr in s, overlapping
// occurrences included. strings.Count would miss overlaps, so the scan
// advances one byte past each match instead of past the whole match.
func countOccurrences(s, substr string) int {
	if substr == "" {
		return 0
	}

	count := 0
	for i := 0; ; {
		j := strings.Index(s[i:], substr)
		if j < 0 {
			return count
		}
		count++
		i += j + 1
	}
}

// Validate verifies the unit is properly configured and ready to execute.
func (hu *HedgeUnit) Validate() error {
	if err := validate.Struct(hu.config); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the unit's
// config, replacing the marker set only when decoding and validation both
// succeed.
func (hu *HedgeUnit) UnmarshalParameters(params yaml.Node) error {
	var config HedgeConfig

	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}

	markers := make([]string, len(config.Markers))
	for i, m := range config.Markers {
		markers[i] = strings.ToLower(m)
	}

	hu.config = config
	hu.markers = markers
	return nil
}

// DefaultHedgeConfig returns a HedgeConfig carrying the reference marker
// set.
func DefaultHedgeConfig() HedgeConfig {
	markers := make([]string, len(defaultHedgeMarkers))
	copy(markers, defaultHedgeMarkers)
	return HedgeConfig{Markers: markers}
}
