package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-caliper/internal/domain"
)

func TestNewHedgeUnit(t *testing.T) {
	tests := []struct {
		name      string
		unitName  string
		config    HedgeConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:      "default configuration",
			unitName:  "test-hedge",
			config:    DefaultHedgeConfig(),
			wantError: false,
		},
		{
			name:      "custom markers",
			unitName:  "test-hedge",
			config:    HedgeConfig{Markers: []string{"maybe", "dunno"}},
			wantError: false,
		},
		{
			name:      "empty unit name",
			unitName:  "",
			config:    DefaultHedgeConfig(),
			wantError: true,
			errorMsg:  "unit name cannot be empty",
		},
		{
			name:      "empty marker list",
			unitName:  "test-hedge",
			config:    HedgeConfig{Markers: []string{}},
			wantError: true,
			errorMsg:  "configuration validation failed",
		},
		{
			name:      "empty string marker",
			unitName:  "test-hedge",
			config:    HedgeConfig{Markers: []string{"might", ""}},
			wantError: true,
			errorMsg:  "configuration validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewHedgeUnit(tt.unitName, tt.config)
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

func TestHedgeUnit_HedgeScore(t *testing.T) {
	tests := []struct {
		name    string
		markers []string
		answer  string
		want    int
	}{
		{
			name:   "no markers present",
			answer: "The capital of France is Paris.",
			want:   0,
		},
		{
			name:   "empty answer",
			answer: "",
			want:   0,
		},
		{
			name:   "single marker",
			answer: "It might be Paris.",
			want:   1,
		},
		{
			name:   "repeated marker counts every occurrence",
			answer: "Might. MIGHT. might.",
			want:   3,
		},
		{
			name:   "case insensitive matching",
			answer: "PERHAPS it is, PeRhApS not.",
			want:   2,
		},
		{
			name:   "multiple distinct markers add up",
			answer: "It might be Paris, or possibly Lyon; I'm not sure.",
			want:   3,
		},
		{
			name:   "multi-word phrase counts as one occurrence",
			answer: "it is believed that the city fell in 1453",
			want:   1,
		},
		{
			name:   "substring matching has no word boundaries",
			answer: "The mayor may attend.",
			want:   2,
		},
		{
			name:    "overlapping occurrences all count",
			markers: []string{"aa"},
			answer:  "aaaa",
			want:    3,
		},
		{
			name:    "marker inside marker counts for both",
			markers: []string{"might", "one might argue"},
			answer:  "one might argue otherwise",
			want:    2,
		},
		{
			name:   "non-ascii text around markers",
			answer: "Vielleicht... perhaps... かもしれない",
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultHedgeConfig()
			if tt.markers != nil {
				config = HedgeConfig{Markers: tt.markers}
			}
			unit, err := NewHedgeUnit("test", config)
			require.NoError(t, err)

			assert.Equal(t, tt.want, unit.HedgeScore(tt.answer))
		})
	}
}

func TestHedgeUnit_Execute(t *testing.T) {
	unit, err := NewHedgeUnit("test", DefaultHedgeConfig())
	require.NoError(t, err)

	t.Run("writes hedge score to state", func(t *testing.T) {
		state := domain.With(domain.NewState(), domain.KeyAnswer, "It could be Paris, or it might be Lyon.")

		out, err := unit.Execute(context.Background(), state)
		require.NoError(t, err)

		score, ok := domain.Get(out, domain.KeyHedgeScore)
		require.True(t, ok, "Execute should write the hedge score.")
		assert.Equal(t, 2, score)
	})

	t.Run("missing answer is an error", func(t *testing.T) {
		out, err := unit.Execute(context.Background(), domain.NewState())
		assert.ErrorIs(t, err, ErrAnswerMissing)

		_, ok := domain.Get(out, domain.KeyHedgeScore)
		assert.False(t, ok, "Failed execution must not write a score.")
	})

	t.Run("empty answer scores zero", func(t *testing.T) {
		state := domain.With(domain.NewState(), domain.KeyAnswer, "")

		out, err := unit.Execute(context.Background(), state)
		require.NoError(t, err)

		score, ok := domain.Get(out, domain.KeyHedgeScore)
		require.True(t, ok)
		assert.Equal(t, 0, score)
	})
}

func TestHedgeUnit_UnmarshalParameters(t *testing.T) {
	unit, err := NewHedgeUnit("test", DefaultHedgeConfig())
	require.NoError(t, err)

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("markers: [\"MaYbE\"]"), &node))
	require.Len(t, node.Content, 1)

	require.NoError(t, unit.UnmarshalParameters(*node.Content[0]))
	assert.Equal(t, 1, unit.HedgeScore("maybe... might"),
		"New marker set should fully replace the default and be lowercased.")

	t.Run("rejects empty marker list", func(t *testing.T) {
		var bad yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("markers: []"), &bad))
		require.Len(t, bad.Content, 1)

		err := unit.UnmarshalParameters(*bad.Content[0])
		assert.Error(t, err)
		assert.Equal(t, 1, unit.HedgeScore("maybe"),
			"Failed update must leave the previous marker set in place.")
	})
}

func TestDefaultHedgeConfig_IsolatedCopy(t *testing.T) {
	a := DefaultHedgeConfig()
	b := DefaultHedgeConfig()

	a.Markers[0] = "mutated"
	assert.NotEqual(t, "mutated", b.Markers[0],
		"Each call must return an independent copy of the marker list.")
}
