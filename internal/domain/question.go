// Package domain contains pure, dependency-free domain models and types
// for the calibration evaluator.
package domain

import "time"

// Question represents a single entry in the question set under evaluation.
// Questions are loaded verbatim from an external source and are immutable
// once loaded.
type Question struct {
	// Question is the text sent to the model.
	Question string `json:"question"`

	// GroundTruth is the reference correct-answer string, or nil when no
	// factual check applies to this question (e.g. an inherently
	// unanswerable or speculative question).
	GroundTruth *string `json:"ground_truth"`

	// Answerable records whether the question is considered answerable.
	// It is carried through for reporting and dataset bookkeeping; the
	// scoring pipeline keys off GroundTruth, not this flag.
	Answerable bool `json:"answerable"`
}

// Verifiable reports whether this question carries a ground truth to
// check answers against.
func (q Question) Verifiable() bool { return q.GroundTruth != nil }

// EvaluationResult captures the scored outcome for a single question.
// Results are created once per evaluation pass, never mutated afterward,
// and held in a sequence matching the input question order. Order matters
// only for reporting; the aggregate score is order-independent.
type EvaluationResult struct {
	// Question is the question text that was asked.
	Question string `json:"question"`

	// Answer is the model's answer string. It may be empty when the
	// model-query collaborator failed; see QueryFailed.
	Answer string `json:"answer"`

	// GroundTruth is the reference answer the correctness check ran
	// against, or nil when no factual check applied.
	GroundTruth *string `json:"ground_truth"`

	// IsCorrect is the correctness verdict: a pure function of
	// (Answer, GroundTruth).
	IsCorrect bool `json:"is_correct"`

	// HedgeScore counts hedge-marker occurrences in the answer: a pure
	// function of Answer and the fixed marker set.
	HedgeScore int `json:"hedge_score"`

	// QueryFailed marks that the model-query collaborator could not
	// produce an answer. The result is still scored (over the sentinel
	// empty answer) so the aggregate is never silently computed over a
	// smaller sample than the input set.
	QueryFailed bool `json:"query_failed,omitempty"`
}

// CalibrationReport is the complete output of one evaluation run: the
// per-question results in input order plus the aggregate summary.
type CalibrationReport struct {
	// Model identifies the model that produced the answers.
	Model string `json:"model"`

	// Results holds one entry per input question, in input order.
	Results []EvaluationResult `json:"results"`

	// Summary is the aggregate calibration outcome over Results.
	Summary CalibrationSummary `json:"summary"`

	// Timestamp records when the report was produced.
	Timestamp time.Time `json:"timestamp"`
}
