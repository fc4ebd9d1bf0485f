package units

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-caliper/internal/domain"
	"github.com/ahrav/go-caliper/internal/ports"
)

var _ ports.Unit = (*QueryUnit)(nil)

// Configuration defaults for the QueryUnit.
const (
	// DefaultQueryPrompt sends the question text verbatim.
	DefaultQueryPrompt = "{{.Question}}"
	// DefaultMaxTokens is the default maximum tokens per answer.
	DefaultMaxTokens = 1024
	// DefaultTemperature is the default generation temperature.
	DefaultTemperature = 0.2
	// DefaultQueryTimeout bounds a single model call.
	DefaultQueryTimeout = 30 * time.Second
)

// QueryUnit obtains one answer string from the model-query collaborator
// for the question in the state. One question in, one answer out, fully
// synchronous: any suspension happens inside the LLM client at the
// network boundary, never in the scoring units downstream.
//
// The unit does not retry; resilience belongs to the LLM client's
// middleware chain. On failure it returns domain.ErrQueryFailed so the
// driver can record the question distinctly rather than silently
// skipping it. Any other error, such as a prompt template that fails at
// render time, is a configuration bug and is returned unwrapped.
type QueryUnit struct {
	name           string
	config         QueryConfig
	llmClient      ports.LLMClient
	promptTemplate *template.Template
	tracer         trace.Tracer
}

// QueryConfig defines the configuration parameters for the QueryUnit.
// All fields are validated during unit creation and parameter
// unmarshaling.
type QueryConfig struct {
	// Prompt is the Go template used to build the model prompt from the
	// question. It should use the {{.Question}} placeholder.
	Prompt string `yaml:"prompt" json:"prompt" validate:"required"`

	// Temperature controls randomness in generation (0.0-1.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=1.0"`

	// MaxTokens limits the length of the generated answer.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=10,max=16000"`

	// Timeout bounds each model call.
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"required,min=1s,max=300s"`
}

// NewQueryUnit creates a QueryUnit with the given configuration and LLM
// client. It returns an error if the configuration is invalid, the
// client is nil, or the prompt template does not parse.
func NewQueryUnit(name string, llmClient ports.LLMClient, config QueryConfig) (*QueryUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if llmClient == nil {
		return nil, ErrLLMClientNil
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	tmpl, err := template.New("prompt").Parse(config.Prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}

	return &QueryUnit{
		name:           name,
		config:         config,
		llmClient:      llmClient,
		promptTemplate: tmpl,
		tracer:         otel.Tracer("query-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (qu *QueryUnit) Name() string { return qu.name }

// Execute asks the model the question held by the state and stores the
// returned answer string.
//
// State requirements:
//   - domain.KeyQuestion: non-empty question text
//
// Returns a new state containing domain.KeyAnswer. Whatever string the
// client returns, including empty, is stored as the valid answer to
// score. A client error is returned wrapped in domain.ErrQueryFailed.
func (qu *QueryUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	ctx, span := qu.tracer.Start(ctx, "QueryUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "query"),
			attribute.String("unit.id", qu.name),
			attribute.String("llm.model", qu.llmClient.GetModel()),
		),
	)
	defer span.End()

	question, ok := domain.Get(state, domain.KeyQuestion)
	if !ok {
		span.RecordError(ErrQuestionMissing)
		return state, ErrQuestionMissing
	}
	if question == "" {
		span.RecordError(ErrQuestionEmpty)
		return state, ErrQuestionEmpty
	}

	ctx, cancel := context.WithTimeout(ctx, qu.config.Timeout)
	defer cancel()

	var promptBuf bytes.Buffer
	if err := qu.promptTemplate.Execute(&promptBuf, struct{ Question string }{Question: question}); err != nil {
		span.RecordError(err)
		return state, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	options := map[string]any{
		"temperature": qu.config.Temperature,
		"max_tokens":  qu.config.MaxTokens,
	}

	start := time.Now()
	answer, err := qu.llmClient.Complete(ctx, promptBuf.String(), options)
	if err != nil {
		span.RecordError(err)
		return state, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}

	span.SetAttributes(
		attribute.Int("llm.answer_length", len(answer)),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return domain.With(state, domain.KeyAnswer, answer), nil
}

// Validate verifies the unit is properly configured and ready to execute.
func (qu *QueryUnit) Validate() error {
	if qu.llmClient == nil {
		return ErrLLMClientNil
	}
	if err := validate.Struct(qu.config); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the unit's
// config, replacing it and reparsing the prompt template only when
// decoding and validation both succeed.
func (qu *QueryUnit) UnmarshalParameters(params yaml.Node) error {
	var config QueryConfig

	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}

	tmpl, err := template.New("prompt").Parse(config.Prompt)
	if err != nil {
		return fmt.Errorf("failed to parse prompt template: %w", err)
	}

	qu.config = config
	qu.promptTemplate = tmpl
	return nil
}

// DefaultQueryConfig returns production-ready defaults: the verbatim
// question prompt, low temperature for reproducible answers, and a
// 30-second per-call timeout.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		Prompt:      DefaultQueryPrompt,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultQueryTimeout,
	}
}
