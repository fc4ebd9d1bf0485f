package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCollector captures metric calls for assertion.
type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string]int
	labels     map[string]map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string]int),
		labels:     make(map[string]map[string]string),
	}
}

func (r *recordingCollector) RecordLatency(string, time.Duration, map[string]string) {}
func (r *recordingCollector) RecordGauge(string, float64, map[string]string)         {}

func (r *recordingCollector) RecordCounter(name string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := name + ":" + labels["status"] + ":" + labels["token_type"]
	r.counters[key] += value
	r.labels[key] = copyLabels(labels)
}

func (r *recordingCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[name+":"+labels["status"]]++
}

func copyLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func TestMetricsMiddleware_RecordsSuccess(t *testing.T) {
	mock := NewMockCoreLLM()
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_total:success:"])
	assert.Equal(t, 1, collector.histograms["llm_latency_seconds:success"])
	assert.Equal(t, 10.0, collector.counters["llm_tokens_total:success:input"])
	assert.Equal(t, 20.0, collector.counters["llm_tokens_total:success:output"])
	assert.Equal(t, "test-model", collector.labels["llm_requests_total:success:"]["model"])
}

func TestMetricsMiddleware_RecordsError(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Err = errors.New("provider error")
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_total:error:"])
	assert.Zero(t, collector.counters["llm_tokens_total:error:input"],
		"token counters must not be recorded on failure")
}

func TestMetricsMiddleware_RecordsCircuitOpen(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Err = ErrCircuitOpen
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware(collector)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, collector.counters["llm_requests_total:circuit_open:"])
}

func TestMetricsMiddleware_NilCollectorIsSafe(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := MetricsMiddleware(nil)(mock)

	response, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", response)
}
