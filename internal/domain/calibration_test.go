package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCalibrate covers the aggregate scoring over mixed, single-class,
// and empty result sets.
func TestCalibrate(t *testing.T) {
	tests := []struct {
		name    string
		results []EvaluationResult
		want    CalibrationSummary
	}{
		{
			name:    "empty input yields zero summary",
			results: nil,
			want: CalibrationSummary{
				Score:             0,
				AvgHedgeIncorrect: 0,
				AvgHedgeCorrect:   0,
				Correct:           0,
				Incorrect:         0,
			},
		},
		{
			name: "well calibrated model scores positive",
			results: []EvaluationResult{
				{IsCorrect: true, HedgeScore: 0},
				{IsCorrect: true, HedgeScore: 0},
				{IsCorrect: false, HedgeScore: 2},
				{IsCorrect: false, HedgeScore: 2},
			},
			want: CalibrationSummary{
				Score:             2.0,
				AvgHedgeIncorrect: 2.0,
				AvgHedgeCorrect:   0.0,
				Correct:           2,
				Incorrect:         2,
			},
		},
		{
			name: "inverted hedging scores negative",
			results: []EvaluationResult{
				{IsCorrect: true, HedgeScore: 1},
				{IsCorrect: false, HedgeScore: 0},
			},
			want: CalibrationSummary{
				Score:             -1.0,
				AvgHedgeIncorrect: 0.0,
				AvgHedgeCorrect:   1.0,
				Correct:           1,
				Incorrect:         1,
			},
		},
		{
			name: "all correct leaves incorrect group at the empty default",
			results: []EvaluationResult{
				{IsCorrect: true, HedgeScore: 3},
				{IsCorrect: true, HedgeScore: 1},
			},
			want: CalibrationSummary{
				Score:             -2.0,
				AvgHedgeIncorrect: EmptyGroupAverage,
				AvgHedgeCorrect:   2.0,
				Correct:           2,
				Incorrect:         0,
			},
		},
		{
			name: "all incorrect leaves correct group at the empty default",
			results: []EvaluationResult{
				{IsCorrect: false, HedgeScore: 4},
				{IsCorrect: false, HedgeScore: 2},
			},
			want: CalibrationSummary{
				Score:             3.0,
				AvgHedgeIncorrect: 3.0,
				AvgHedgeCorrect:   EmptyGroupAverage,
				Correct:           0,
				Incorrect:         2,
			},
		},
		{
			name: "fractional averages",
			results: []EvaluationResult{
				{IsCorrect: true, HedgeScore: 1},
				{IsCorrect: true, HedgeScore: 0},
				{IsCorrect: false, HedgeScore: 2},
				{IsCorrect: false, HedgeScore: 1},
				{IsCorrect: false, HedgeScore: 0},
			},
			want: CalibrationSummary{
				Score:             0.5,
				AvgHedgeIncorrect: 1.0,
				AvgHedgeCorrect:   0.5,
				Correct:           2,
				Incorrect:         3,
			},
		},
		{
			name: "query failures are counted and still scored",
			results: []EvaluationResult{
				{IsCorrect: true, HedgeScore: 0},
				{IsCorrect: false, HedgeScore: 0, QueryFailed: true},
			},
			want: CalibrationSummary{
				Score:             0.0,
				AvgHedgeIncorrect: 0.0,
				AvgHedgeCorrect:   0.0,
				Correct:           1,
				Incorrect:         1,
				QueryFailures:     1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calibrate(tt.results)

			assert.InDelta(t, tt.want.Score, got.Score, 1e-9, "Score mismatch.")
			assert.InDelta(t, tt.want.AvgHedgeIncorrect, got.AvgHedgeIncorrect, 1e-9, "Incorrect-group average mismatch.")
			assert.InDelta(t, tt.want.AvgHedgeCorrect, got.AvgHedgeCorrect, 1e-9, "Correct-group average mismatch.")
			assert.Equal(t, tt.want.Correct, got.Correct, "Correct count mismatch.")
			assert.Equal(t, tt.want.Incorrect, got.Incorrect, "Incorrect count mismatch.")
			assert.Equal(t, tt.want.QueryFailures, got.QueryFailures, "Query failure count mismatch.")
		})
	}
}

// TestCalibrate_PermutationInvariant verifies that the summary does not
// depend on result ordering.
func TestCalibrate_PermutationInvariant(t *testing.T) {
	results := []EvaluationResult{
		{IsCorrect: true, HedgeScore: 0},
		{IsCorrect: true, HedgeScore: 2},
		{IsCorrect: false, HedgeScore: 5},
		{IsCorrect: false, HedgeScore: 1},
		{IsCorrect: false, HedgeScore: 3},
		{IsCorrect: true, HedgeScore: 1, QueryFailed: true},
	}
	want := Calibrate(results)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]EvaluationResult, len(results))
		copy(shuffled, results)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Calibrate(shuffled)
		assert.Equal(t, want, got, "Summary must be invariant under input permutation.")
	}
}

// TestQuestion_Verifiable checks the ground-truth presence predicate.
func TestQuestion_Verifiable(t *testing.T) {
	gt := "Paris"
	assert.True(t, Question{Question: "q", GroundTruth: &gt}.Verifiable())
	assert.False(t, Question{Question: "q", GroundTruth: nil}.Verifiable())

	empty := ""
	assert.True(t, Question{Question: "q", GroundTruth: &empty}.Verifiable(),
		"A present-but-empty ground truth still marks the question verifiable.")
}
