// Package llm implements the model-query collaborator for the calibration
// evaluator: a client for LLM providers with built-in support for retries,
// timeouts, rate limiting, circuit breaking, metrics, and tracing.
//
// The evaluation core treats this package as an external collaborator with
// a narrow contract (question string in, answer string out). All resilience
// and observability concerns live here, composed through a middleware
// chain, so the scoring pipeline itself stays free of retry, backpressure,
// and concurrency logic.
//
// Basic usage:
//
//	client, err := llm.NewClient("google", llm.ClientConfig{
//	    APIKey: os.Getenv("GOOGLE_API_KEY"),
//	    Model:  "gemini-2.0-flash-exp",
//	})
//	answer, err := client.Complete(ctx, "What is the capital of France?", nil)
//
// With middleware:
//
//	client, err := llm.NewClient("google", llm.ClientConfig{
//	    APIKey: os.Getenv("GOOGLE_API_KEY"),
//	    Model:  "gemini-2.0-flash-exp",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, time.Second, 30*time.Second),
//	        llm.RateLimitMiddleware(2, 4),
//	        llm.MetricsMiddleware(collector),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-caliper/internal/ports"
)

// CoreLLM defines the minimal interface a provider must implement.
// The middleware system wraps any conforming implementation, so providers
// only deal with request formatting and authentication.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response
	// text along with input and output token counts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// TokenEstimator provides pluggable token estimation for cost accounting
// and rate limiting when exact counts are unavailable before a request.
type TokenEstimator interface {
	// EstimateTokens returns an approximate token count for the text.
	EstimateTokens(text string) int
}

// Middleware wraps a CoreLLM to add cross-cutting functionality such as
// retries, rate limiting, or metrics without touching provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds all options for creating an LLM client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider. It must never be
	// logged or embedded in reports.
	APIKey string

	// Model specifies which model to use for requests.
	Model string

	// Timeout sets the maximum duration for individual requests.
	// Zero means no client-level timeout.
	Timeout time.Duration

	// TokenEstimator provides custom token counting logic.
	// If nil, a character-based estimator is used.
	TokenEstimator TokenEstimator

	// Middleware is applied in the order given; the first entry becomes
	// the outermost wrapper.
	Middleware []Middleware
}

// Client implements ports.LLMClient by wrapping a provider-specific
// CoreLLM with the configured middleware chain.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient creates an LLM client for the named provider, assembling the
// middleware chain and validating configuration before returning.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = &SimpleTokenEstimator{}
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt to the model and returns the response text,
// discarding token usage for callers that don't track it.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and returns the response together with
// input and output token counts for cost accounting.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens returns an approximate token count for the text using
// the configured estimator.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the configured model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SimpleTokenEstimator provides character-based token estimation using
// the common approximation of four characters per token, which works
// reasonably well for English text.
type SimpleTokenEstimator struct{}

// EstimateTokens returns an approximate token count for the text.
func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// Provider factory registry. Providers register themselves in init so
// NewClient can construct them by name.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom provider factory, enabling
// extension without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
