// Package application wires the evaluation pipeline together: it owns the
// run configuration and the sequential driver that turns a question set
// and a model client into a calibration report.
package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Configuration defaults applied by LoadConfig when the file omits a
// field.
const (
	DefaultProvider        = "google"
	DefaultModel           = "gemini-2.0-flash-exp"
	DefaultMaxRetries      = 3
	DefaultBaseDelay       = time.Second
	DefaultMaxDelay        = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultRatePerSecond   = 2.0
	DefaultRateBurst       = 4
	DefaultCircuitFailures = 5
	DefaultCircuitCooldown = 30 * time.Second
)

// Package-level validator for configuration structs.
var validate = validator.New()

// Config is the complete run configuration for the calibration evaluator.
// It covers the model-query collaborator (provider, model, resilience)
// and per-unit parameters; the question set is supplied separately.
//
// The API key deliberately has no place here: it comes from the process
// environment so it never lands in a config file or a report.
type Config struct {
	// Model selects the provider and model to evaluate.
	Model ModelConfig `yaml:"model" validate:"required"`

	// Resilience configures the collaborator-layer middleware chain.
	// The evaluation core itself carries no retry or timeout logic.
	Resilience ResilienceConfig `yaml:"resilience"`

	// Units holds optional per-unit parameter overrides as flexible YAML,
	// decoded strictly by each unit's UnmarshalParameters.
	Units UnitParameters `yaml:"units"`
}

// ModelConfig identifies the model under evaluation.
type ModelConfig struct {
	// Provider names the LLM provider. Only "google" is supported; the
	// tool measures one model at a time against one provider.
	Provider string `yaml:"provider" validate:"required,oneof=google"`

	// Name is the provider-specific model identifier.
	Name string `yaml:"name" validate:"required,min=1"`
}

// ResilienceConfig tunes the middleware chain around model calls.
type ResilienceConfig struct {
	// MaxRetries is the number of retry attempts after the first failure.
	MaxRetries int `yaml:"max_retries" validate:"min=0,max=10"`

	// BaseDelay seeds the exponential backoff between retries.
	BaseDelay time.Duration `yaml:"base_delay" validate:"min=0"`

	// MaxDelay caps the backoff between retries.
	MaxDelay time.Duration `yaml:"max_delay" validate:"min=0"`

	// RequestTimeout bounds each model call at the client level.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"min=0"`

	// RatePerSecond is the sustained request rate toward the provider.
	RatePerSecond float64 `yaml:"rate_per_second" validate:"min=0"`

	// RateBurst allows short spikes above the sustained rate.
	RateBurst int `yaml:"rate_burst" validate:"min=0"`

	// CircuitMaxFailures opens the circuit after this many consecutive
	// failures.
	CircuitMaxFailures int `yaml:"circuit_max_failures" validate:"min=1,max=100"`

	// CircuitCooldown is how long the circuit stays open before probing
	// recovery.
	CircuitCooldown time.Duration `yaml:"circuit_cooldown" validate:"min=0"`
}

// UnitParameters carries optional per-unit YAML parameter blocks.
// Empty nodes leave the unit on its defaults.
type UnitParameters struct {
	// Query overrides the model-query unit parameters (prompt template,
	// temperature, max tokens, per-call timeout).
	Query yaml.Node `yaml:"query"`

	// Correctness overrides the correctness unit parameters.
	Correctness yaml.Node `yaml:"correctness"`

	// Hedge overrides the hedge unit parameters (the marker list).
	Hedge yaml.Node `yaml:"hedge"`

	// Calibration overrides the calibration unit parameters.
	Calibration yaml.Node `yaml:"calibration"`
}

// DefaultConfig returns a Config with production defaults: a Gemini flash
// model and a conservative resilience profile.
func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			Provider: DefaultProvider,
			Name:     DefaultModel,
		},
		Resilience: ResilienceConfig{
			MaxRetries:         DefaultMaxRetries,
			BaseDelay:          DefaultBaseDelay,
			MaxDelay:           DefaultMaxDelay,
			RequestTimeout:     DefaultRequestTimeout,
			RatePerSecond:      DefaultRatePerSecond,
			RateBurst:          DefaultRateBurst,
			CircuitMaxFailures: DefaultCircuitFailures,
			CircuitCooldown:    DefaultCircuitCooldown,
		},
	}
}

// LoadConfig reads a YAML configuration file, overlays it on the
// defaults, and validates the result. An empty path returns the defaults
// unchanged.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path is operator-supplied
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}
