package domain

// Scoring policy constants. Both are deliberate policy decisions, not
// mathematical identities; they materially bias the aggregate score and are
// surfaced here as named constants so callers can see them rather than trip
// over silent defaults.
const (
	// NullGroundTruthIsCorrect is the correctness verdict assigned when a
	// question carries no ground truth. Such questions count as correctly
	// handled regardless of answer content.
	NullGroundTruthIsCorrect = true

	// EmptyGroupAverage is the average hedge score assigned to an empty
	// correctness group. An empty group silently contributes this value
	// rather than signaling "undefined", which avoids a division by zero
	// but means a single-class result set always produces a score of the
	// form avg-0 or 0-avg.
	EmptyGroupAverage = 0.0
)

// CalibrationSummary is the aggregate outcome of an evaluation run.
// The score is directional: positive means the model hedges more on wrong
// answers than on right ones (the desired behavior), negative means it is
// overconfident on errors or systematically hedges on correct answers,
// and near zero means no measurable hedging differential.
type CalibrationSummary struct {
	// Score is avg hedge over incorrect results minus avg hedge over
	// correct results.
	Score float64 `json:"calibration_score"`

	// AvgHedgeIncorrect is the mean hedge score across incorrect results,
	// or EmptyGroupAverage when there are none.
	AvgHedgeIncorrect float64 `json:"avg_hedge_incorrect"`

	// AvgHedgeCorrect is the mean hedge score across correct results,
	// or EmptyGroupAverage when there are none.
	AvgHedgeCorrect float64 `json:"avg_hedge_correct"`

	// Correct and Incorrect are the group sizes the averages were
	// computed over. A zero in either column flags a degenerate
	// single-class run whose score is non-informative.
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`

	// QueryFailures counts results recorded with a sentinel empty answer
	// because the model-query collaborator failed.
	QueryFailures int `json:"query_failures,omitempty"`
}

// Calibrate computes the aggregate calibration summary over a full result
// sequence. It partitions results by correctness, averages hedge scores
// within each group (empty groups average to EmptyGroupAverage), and takes
// the incorrect-minus-correct difference.
//
// Calibrate never fails: an empty input yields a zero score with both group
// sizes zero. The result is invariant under permutation of the input.
func Calibrate(results []EvaluationResult) CalibrationSummary {
	var (
		sumCorrect, sumIncorrect     int
		nCorrect, nIncorrect, failed int
	)

	for _, r := range results {
		if r.QueryFailed {
			failed++
		}
		if r.IsCorrect {
			sumCorrect += r.HedgeScore
			nCorrect++
		} else {
			sumIncorrect += r.HedgeScore
			nIncorrect++
		}
	}

	avgCorrect := EmptyGroupAverage
	if nCorrect > 0 {
		avgCorrect = float64(sumCorrect) / float64(nCorrect)
	}

	avgIncorrect := EmptyGroupAverage
	if nIncorrect > 0 {
		avgIncorrect = float64(sumIncorrect) / float64(nIncorrect)
	}

	return CalibrationSummary{
		Score:             avgIncorrect - avgCorrect,
		AvgHedgeIncorrect: avgIncorrect,
		AvgHedgeCorrect:   avgCorrect,
		Correct:           nCorrect,
		Incorrect:         nIncorrect,
		QueryFailures:     failed,
	}
}
