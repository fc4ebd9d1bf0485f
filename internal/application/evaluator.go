package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahrav/go-caliper/internal/domain"
	"github.com/ahrav/go-caliper/internal/ports"
)

// Errors returned by the evaluator.
var (
	// ErrNilUnit indicates a pipeline unit was not provided.
	ErrNilUnit = errors.New("pipeline unit cannot be nil")

	// ErrSummaryMissing indicates the aggregation unit completed without
	// producing a summary, which is a unit implementation bug.
	ErrSummaryMissing = errors.New("aggregation produced no summary")
)

// Evaluator is the evaluation driver. For each question, in input order,
// it obtains an answer from the model-query unit, judges correctness,
// counts hedge markers, and appends the result; after the full pass it
// aggregates once into the calibration summary.
//
// The loop is fully sequential and synchronous: each question completes
// before the next begins, no state is shared across iterations, and the
// driver carries no retry or backpressure logic of its own. A model-call
// failure does not skip the question: it is recorded distinctly with a
// sentinel empty answer so the aggregate is never computed over a
// silently smaller sample. Only domain.ErrQueryFailed gets that
// treatment; any other query-unit error aborts the run like a
// scoring-unit error would.
type Evaluator struct {
	query       ports.Unit
	correctness ports.Unit
	hedge       ports.Unit
	calibration ports.Unit
	metrics     ports.MetricsCollector
	model       string
}

// EvaluatorOption customizes an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithMetrics attaches a metrics collector recording per-question
// outcomes and the final score. Nil disables metrics.
func WithMetrics(collector ports.MetricsCollector) EvaluatorOption {
	return func(e *Evaluator) { e.metrics = collector }
}

// WithModelName sets the model identifier stamped on the report.
func WithModelName(model string) EvaluatorOption {
	return func(e *Evaluator) { e.model = model }
}

// NewEvaluator assembles the driver from its four pipeline units. Every
// unit is validated before the evaluator is returned.
func NewEvaluator(query, correctness, hedge, calibration ports.Unit, opts ...EvaluatorOption) (*Evaluator, error) {
	units := []ports.Unit{query, correctness, hedge, calibration}
	for _, u := range units {
		if u == nil {
			return nil, ErrNilUnit
		}
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.Name(), err)
		}
	}

	e := &Evaluator{
		query:       query,
		correctness: correctness,
		hedge:       hedge,
		calibration: calibration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run evaluates the full question set and returns the calibration report.
// Scoring-unit failures abort the run: they indicate wiring or
// configuration bugs, not data conditions, and masking them as false/zero
// scores would corrupt the aggregate.
func (e *Evaluator) Run(ctx context.Context, questions []domain.Question) (*domain.CalibrationReport, error) {
	results := make([]domain.EvaluationResult, 0, len(questions))

	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := e.evaluateQuestion(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		results = append(results, result)
	}

	summary, err := e.aggregate(ctx, results)
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordGauge("calibration_score", summary.Score, map[string]string{"model": e.model})
	}

	return &domain.CalibrationReport{
		Model:     e.model,
		Results:   results,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}, nil
}

// evaluateQuestion runs the per-question pipeline: query, then the two
// scoring units over whatever answer the query produced.
func (e *Evaluator) evaluateQuestion(ctx context.Context, q domain.Question) (domain.EvaluationResult, error) {
	start := time.Now()

	state := domain.NewState()
	state = domain.With(state, domain.KeyQuestion, q.Question)
	state = domain.With(state, domain.KeyGroundTruth, q.GroundTruth)
	state = domain.With(state, domain.KeyAnswerable, q.Answerable)
	state = domain.With(state, domain.KeyModel, e.model)

	queryFailed := false
	queried, err := e.query.Execute(ctx, state)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return domain.EvaluationResult{}, ctx.Err()
	case errors.Is(err, domain.ErrQueryFailed):
		// The collaborator could not produce an answer. Record the
		// failure distinctly and score the sentinel empty answer as-is.
		queryFailed = true
		queried = domain.With(state, domain.KeyAnswer, "")
		queried = domain.With(queried, domain.KeyQueryFailed, true)
	default:
		// Anything else is a wiring or configuration bug, such as a
		// prompt template that fails at render time. Absorbing it would
		// score the whole run over sentinel answers.
		return domain.EvaluationResult{}, fmt.Errorf("query unit: %w", err)
	}

	scored, err := e.correctness.Execute(ctx, queried)
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("correctness unit: %w", err)
	}

	scored, err = e.hedge.Execute(ctx, scored)
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("hedge unit: %w", err)
	}

	answer, _ := domain.Get(scored, domain.KeyAnswer)
	isCorrect, ok := domain.Get(scored, domain.KeyIsCorrect)
	if !ok {
		return domain.EvaluationResult{}, fmt.Errorf("correctness unit %s produced no verdict", e.correctness.Name())
	}
	hedgeScore, ok := domain.Get(scored, domain.KeyHedgeScore)
	if !ok {
		return domain.EvaluationResult{}, fmt.Errorf("hedge unit %s produced no score", e.hedge.Name())
	}

	result := domain.EvaluationResult{
		Question:    q.Question,
		Answer:      answer,
		GroundTruth: q.GroundTruth,
		IsCorrect:   isCorrect,
		HedgeScore:  hedgeScore,
		QueryFailed: queryFailed,
	}

	e.recordQuestionMetrics(result, time.Since(start))
	return result, nil
}

// aggregate runs the calibration unit once over the complete result
// sequence.
func (e *Evaluator) aggregate(ctx context.Context, results []domain.EvaluationResult) (domain.CalibrationSummary, error) {
	state := domain.With(domain.NewState(), domain.KeyResults, results)

	state, err := e.calibration.Execute(ctx, state)
	if err != nil {
		return domain.CalibrationSummary{}, fmt.Errorf("calibration unit: %w", err)
	}

	summary, ok := domain.Get(state, domain.KeySummary)
	if !ok || summary == nil {
		return domain.CalibrationSummary{}, ErrSummaryMissing
	}
	return *summary, nil
}

func (e *Evaluator) recordQuestionMetrics(result domain.EvaluationResult, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}

	status := "incorrect"
	if result.IsCorrect {
		status = "correct"
	}
	labels := map[string]string{
		"model":  e.model,
		"status": status,
	}
	e.metrics.RecordLatency("evaluate_question", elapsed, labels)
	e.metrics.RecordCounter("questions_evaluated_total", 1, labels)
	e.metrics.RecordHistogram("hedge_score", float64(result.HedgeScore), labels)

	if result.QueryFailed {
		e.metrics.RecordCounter("query_failures_total", 1, map[string]string{"model": e.model})
	}
}
