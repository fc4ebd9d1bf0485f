// Command caliper measures whether a model's hedging language correlates
// with the factual correctness of its answers over a fixed question set,
// printing per-question results and a single aggregate calibration score.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-caliper/infrastructure/llm"
	"github.com/ahrav/go-caliper/infrastructure/middleware"
	"github.com/ahrav/go-caliper/infrastructure/units"
	"github.com/ahrav/go-caliper/internal/application"
	"github.com/ahrav/go-caliper/internal/dataset"
	"github.com/ahrav/go-caliper/internal/report"
)

// apiKeyEnv names the environment variable holding the provider API key.
// The key is read once here, handed to the client, and never logged.
const apiKeyEnv = "GOOGLE_API_KEY"

func main() {
	var (
		questionsPath = flag.String("questions", "", "Path to the question set JSON file (required)")
		configPath    = flag.String("config", "", "Path to the evaluation config YAML file (optional)")
		modelOverride = flag.String("model", "", "Override the configured model name")
		jsonOut       = flag.String("json", "", "Also write the report as JSON to this path")
	)
	flag.Parse()

	if *questionsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *questionsPath, *configPath, *modelOverride, *jsonOut); err != nil {
		log.Fatalf("caliper: %v", err)
	}
}

func run(ctx context.Context, questionsPath, configPath, modelOverride, jsonOut string) error {
	config, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if modelOverride != "" {
		config.Model.Name = modelOverride
	}

	set, err := dataset.Load(questionsPath)
	if err != nil {
		return err
	}

	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("%s not set", apiKeyEnv)
	}

	collector := middleware.NewPrometheusMetrics(nil)

	client, err := llm.NewClient(config.Model.Provider, llm.ClientConfig{
		APIKey: apiKey,
		Model:  config.Model.Name,
		Middleware: []llm.Middleware{
			llm.RetryMiddleware(config.Resilience.MaxRetries, config.Resilience.BaseDelay, config.Resilience.MaxDelay),
			llm.RateLimitMiddleware(rate.Limit(config.Resilience.RatePerSecond), config.Resilience.RateBurst),
			llm.CircuitBreakerMiddleware(config.Resilience.CircuitMaxFailures, config.Resilience.CircuitCooldown),
			llm.MetricsMiddleware(collector),
			llm.TracingMiddleware("caliper"),
			llm.TimeoutMiddleware(config.Resilience.RequestTimeout),
		},
	})
	if err != nil {
		return err
	}

	evaluator, err := buildEvaluator(client, collector, config)
	if err != nil {
		return err
	}

	result, err := evaluator.Run(ctx, set.Questions)
	if err != nil {
		return err
	}

	if err := report.WriteText(os.Stdout, result); err != nil {
		return err
	}

	if jsonOut != "" {
		f, err := os.Create(jsonOut) // #nosec G304 - path is operator-supplied
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()

		if err := report.WriteJSON(f, result); err != nil {
			return fmt.Errorf("failed to write JSON report: %w", err)
		}
	}

	return nil
}

// buildEvaluator constructs the four pipeline units with their defaults,
// applies any per-unit parameter overrides from the config, and wires
// them into the driver.
func buildEvaluator(client *llm.Client, collector *middleware.PrometheusMetrics, config application.Config) (*application.Evaluator, error) {
	query, err := units.NewQueryUnit("query", client, units.DefaultQueryConfig())
	if err != nil {
		return nil, err
	}
	if !config.Units.Query.IsZero() {
		if err := query.UnmarshalParameters(config.Units.Query); err != nil {
			return nil, fmt.Errorf("query parameters: %w", err)
		}
	}

	correctness, err := units.NewCorrectnessUnit("correctness", units.DefaultCorrectnessConfig())
	if err != nil {
		return nil, err
	}
	if !config.Units.Correctness.IsZero() {
		if err := correctness.UnmarshalParameters(config.Units.Correctness); err != nil {
			return nil, fmt.Errorf("correctness parameters: %w", err)
		}
	}

	hedge, err := units.NewHedgeUnit("hedge", units.DefaultHedgeConfig())
	if err != nil {
		return nil, err
	}
	if !config.Units.Hedge.IsZero() {
		if err := hedge.UnmarshalParameters(config.Units.Hedge); err != nil {
			return nil, fmt.Errorf("hedge parameters: %w", err)
		}
	}

	calibration, err := units.NewCalibrationUnit("calibration", units.DefaultCalibrationConfig())
	if err != nil {
		return nil, err
	}
	if !config.Units.Calibration.IsZero() {
		if err := calibration.UnmarshalParameters(config.Units.Calibration); err != nil {
			return nil, fmt.Errorf("calibration parameters: %w", err)
		}
	}

	return application.NewEvaluator(query, correctness, hedge, calibration,
		application.WithMetrics(collector),
		application.WithModelName(client.GetModel()),
	)
}
