package ports

import (
	"context"
	"time"
)

// LLMClient defines the interface for the model-query collaborator.
// Implementations handle provider-specific details like authentication,
// request formatting, and response parsing. From the evaluator's point of
// view the contract is narrow: send a question, get back an answer string.
// Whatever string comes back (including empty) is scored as-is; failure
// handling beyond returning an error is the implementation's concern.
type LLMClient interface {
	// Complete sends a completion request to the model provider and
	// returns the generated text.
	//
	// The options map allows per-call settings without widening the
	// interface. Common options:
	//   - "temperature": float64 (0.0-1.0)
	//   - "max_tokens": int
	//   - "model": string (specific model version)
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens calculates the approximate token count for a text.
	// Used for cost estimation; the estimation method varies by provider.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client,
	// for logging and report headers.
	GetModel() string
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations integrate with observability platforms such as Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric, for events such as
	// questions evaluated, correctness verdicts, or query failures.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric, such as the
	// final calibration score of a run.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, for distributions
	// such as per-answer hedge scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
