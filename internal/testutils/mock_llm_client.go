// Package testutils provides deterministic test doubles for the
// evaluation pipeline, primarily a mock LLM client with scripted
// answers.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ahrav/go-caliper/internal/ports"
)

// MockLLMClient implements ports.LLMClient with deterministic responses
// for testing the evaluation pipeline without network access. Answers are
// scripted per question via substring matching, with an optional default
// answer and an optional per-pattern error to exercise the query-failure
// path.
type MockLLMClient struct {
	mu sync.Mutex

	// model is the mock model identifier.
	model string

	// responses maps prompt substrings to scripted answers.
	responses map[string]string

	// failures maps prompt substrings to errors returned instead of an
	// answer.
	failures map[string]error

	// defaultAnswer is returned when no pattern matches. Empty string is
	// a valid answer, so unmatched prompts never error.
	defaultAnswer string

	// prompts records every prompt received, in call order.
	prompts []string
}

// NewMockLLMClient creates a MockLLMClient that returns the given default
// answer for every prompt until patterns are scripted.
func NewMockLLMClient(model, defaultAnswer string) *MockLLMClient {
	return &MockLLMClient{
		model:         model,
		responses:     make(map[string]string),
		failures:      make(map[string]error),
		defaultAnswer: defaultAnswer,
	}
}

// Script registers an answer for prompts containing the given pattern.
func (m *MockLLMClient) Script(pattern, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[pattern] = answer
}

// Fail registers an error for prompts containing the given pattern.
func (m *MockLLMClient) Fail(pattern string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[pattern] = err
}

// Complete returns the scripted answer for the first matching pattern,
// the scripted error if a failure pattern matches, or the default answer.
// It honors context cancellation.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)

	for pattern, err := range m.failures {
		if strings.Contains(prompt, pattern) {
			return "", err
		}
	}

	for pattern, answer := range m.responses {
		if strings.Contains(prompt, pattern) {
			return answer, nil
		}
	}

	return m.defaultAnswer, nil
}

// EstimateTokens returns a rough character-based token estimate.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, fmt.Errorf("cannot estimate tokens for empty text")
	}
	return (len(text) + 3) / 4, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }

// Prompts returns a copy of every prompt received so far, in call order.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns the number of Complete calls received.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

var _ ports.LLMClient = (*MockLLMClient)(nil)
