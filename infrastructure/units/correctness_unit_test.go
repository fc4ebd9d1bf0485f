package units

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-caliper/internal/domain"
)

func strptr(s string) *string { return &s }

func TestNewCorrectnessUnit(t *testing.T) {
	tests := []struct {
		name      string
		unitName  string
		config    CorrectnessConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid configuration",
			unitName:  "test-correctness",
			config:    CorrectnessConfig{TrimWhitespace: true},
			wantError: false,
		},
		{
			name:      "default configuration",
			unitName:  "test-correctness",
			config:    DefaultCorrectnessConfig(),
			wantError: false,
		},
		{
			name:      "empty unit name",
			unitName:  "",
			config:    DefaultCorrectnessConfig(),
			wantError: true,
			errorMsg:  "unit name cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewCorrectnessUnit(tt.unitName, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, unit)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, unit)
				assert.Equal(t, tt.unitName, unit.Name())
			}
		})
	}
}

func TestCorrectnessUnit_IsFactuallyCorrect(t *testing.T) {
	tests := []struct {
		name        string
		config      CorrectnessConfig
		answer      string
		groundTruth *string
		want        bool
	}{
		{
			name:        "exact match",
			answer:      "Paris",
			groundTruth: strptr("Paris"),
			want:        true,
		},
		{
			name:        "substring within a sentence",
			answer:      "The capital of France is Paris, of course.",
			groundTruth: strptr("Paris"),
			want:        true,
		},
		{
			name:        "case insensitive both directions",
			answer:      "the capital is PARIS",
			groundTruth: strptr("Paris"),
			want:        true,
		},
		{
			name:        "no match",
			answer:      "The capital of France is Lyon.",
			groundTruth: strptr("Paris"),
			want:        false,
		},
		{
			name:        "ground truth longer than answer",
			answer:      "Paris",
			groundTruth: strptr("Paris, France"),
			want:        false,
		},
		{
			name:        "nil ground truth is always correct",
			answer:      "I have absolutely no idea.",
			groundTruth: nil,
			want:        true,
		},
		{
			name:        "nil ground truth with empty answer",
			answer:      "",
			groundTruth: nil,
			want:        true,
		},
		{
			name:        "empty answer with present ground truth",
			answer:      "",
			groundTruth: strptr("Paris"),
			want:        false,
		},
		{
			name:        "empty ground truth matches any answer",
			answer:      "anything at all",
			groundTruth: strptr(""),
			want:        true,
		},
		{
			name:        "punctuation in answer does not block matching",
			answer:      "It's Paris!",
			groundTruth: strptr("paris"),
			want:        true,
		},
		{
			name:        "no whitespace trimming by default",
			answer:      "Paris",
			groundTruth: strptr(" Paris "),
			want:        false,
		},
		{
			name:        "whitespace trimming when enabled",
			config:      CorrectnessConfig{TrimWhitespace: true},
			answer:      "Paris",
			groundTruth: strptr(" Paris "),
			want:        true,
		},
		{
			name:        "unicode case folding",
			answer:      "Der Fluss heißt DONAU.",
			groundTruth: strptr("donau"),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewCorrectnessUnit("test", tt.config)
			require.NoError(t, err)

			got := unit.IsFactuallyCorrect(tt.answer, tt.groundTruth)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorrectnessUnit_Execute(t *testing.T) {
	tests := []struct {
		name      string
		setup     func() domain.State
		wantError error
		wantSet   bool
		wantValue bool
	}{
		{
			name: "writes verdict for matching answer",
			setup: func() domain.State {
				state := domain.With(domain.NewState(), domain.KeyAnswer, "It is Paris.")
				return domain.With(state, domain.KeyGroundTruth, strptr("paris"))
			},
			wantSet:   true,
			wantValue: true,
		},
		{
			name: "writes verdict for non-matching answer",
			setup: func() domain.State {
				state := domain.With(domain.NewState(), domain.KeyAnswer, "It is Lyon.")
				return domain.With(state, domain.KeyGroundTruth, strptr("paris"))
			},
			wantSet:   true,
			wantValue: false,
		},
		{
			name: "missing answer is an error",
			setup: func() domain.State {
				return domain.With(domain.NewState(), domain.KeyGroundTruth, strptr("paris"))
			},
			wantError: ErrAnswerMissing,
		},
		{
			name: "missing ground truth entry is an error",
			setup: func() domain.State {
				return domain.With(domain.NewState(), domain.KeyAnswer, "It is Paris.")
			},
			wantError: ErrGroundTruthMissing,
		},
		{
			name: "explicitly nil ground truth is valid input",
			setup: func() domain.State {
				state := domain.With(domain.NewState(), domain.KeyAnswer, "no idea")
				return domain.With(state, domain.KeyGroundTruth, (*string)(nil))
			},
			wantSet:   true,
			wantValue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewCorrectnessUnit("test", DefaultCorrectnessConfig())
			require.NoError(t, err)

			out, err := unit.Execute(context.Background(), tt.setup())
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				_, ok := domain.Get(out, domain.KeyIsCorrect)
				assert.False(t, ok, "Failed execution must not write a verdict.")
				return
			}

			require.NoError(t, err)
			got, ok := domain.Get(out, domain.KeyIsCorrect)
			assert.Equal(t, tt.wantSet, ok)
			assert.Equal(t, tt.wantValue, got)
		})
	}
}

func TestCorrectnessUnit_Execute_RejectsOversizedAnswer(t *testing.T) {
	unit, err := NewCorrectnessUnit("test", DefaultCorrectnessConfig())
	require.NoError(t, err)

	state := domain.With(domain.NewState(), domain.KeyAnswer, strings.Repeat("a", MaxAnswerLength+1))
	state = domain.With(state, domain.KeyGroundTruth, strptr("a"))

	_, err = unit.Execute(context.Background(), state)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "answer too long")
}

func TestCorrectnessUnit_UnmarshalParameters(t *testing.T) {
	unit, err := NewCorrectnessUnit("test", DefaultCorrectnessConfig())
	require.NoError(t, err)

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("trim_whitespace: true"), &node))
	require.Len(t, node.Content, 1)

	require.NoError(t, unit.UnmarshalParameters(*node.Content[0]))
	assert.True(t, unit.config.TrimWhitespace)

	assert.True(t, unit.IsFactuallyCorrect("Paris", strptr(" Paris ")),
		"Updated parameters should take effect immediately.")
}

func TestCorrectnessUnit_Validate(t *testing.T) {
	unit, err := NewCorrectnessUnit("test", DefaultCorrectnessConfig())
	require.NoError(t, err)
	assert.NoError(t, unit.Validate())
}
