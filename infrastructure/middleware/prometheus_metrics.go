// Package middleware provides cross-cutting infrastructure for the
// calibration evaluator, currently the Prometheus metrics collector.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-caliper/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus.
// It tracks evaluation throughput, per-question latency, hedge-score
// distribution, model-call volume, and the latest calibration score.
type PrometheusMetrics struct {
	latency    *prometheus.HistogramVec
	counters   *prometheus.CounterVec
	gauges     *prometheus.GaugeVec
	histograms *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its metrics with the given registerer. Passing nil registers with the
// default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}

	return &PrometheusMetrics{
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caliper_operation_duration_seconds",
				Help:    "Execution time of evaluator operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "model", "status"},
		),
		counters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caliper_events_total",
				Help: "Counts of evaluator events such as questions evaluated, model requests, and query failures.",
			},
			[]string{"metric", "model", "status"},
		),
		gauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "caliper_state",
				Help: "Current evaluator state values, including the latest calibration score.",
			},
			[]string{"metric", "model"},
		),
		histograms: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caliper_distribution",
				Help:    "Distributions observed during evaluation, such as per-answer hedge scores and model latency.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"metric", "model", "status"},
		),
	}
}

// RecordLatency records operation duration in the latency histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.latency.WithLabelValues(operation, labelOr(labels, "model"), labelOr(labels, "status")).Observe(duration.Seconds())
}

// RecordCounter increments the named counter.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	pm.counters.WithLabelValues(metric, labelOr(labels, "model"), labelOr(labels, "status")).Add(value)
}

// RecordGauge sets the named gauge.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.gauges.WithLabelValues(metric, labelOr(labels, "model")).Set(value)
}

// RecordHistogram records a value in the named distribution.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.histograms.WithLabelValues(metric, labelOr(labels, "model"), labelOr(labels, "status")).Observe(value)
}

func labelOr(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return "unknown"
}
