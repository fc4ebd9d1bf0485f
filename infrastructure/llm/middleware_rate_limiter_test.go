package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimitMiddleware_AllowsBurst(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Limit(1), 3)(mock)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
		require.NoError(t, err)
	}

	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"requests within the burst should not be delayed")
	assert.Equal(t, 3, mock.CallCount)
}

func TestRateLimitMiddleware_PacesBeyondBurst(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Limit(20), 1)(mock)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, _, _, err := wrapped.DoRequest(context.Background(), "test prompt", nil)
		require.NoError(t, err)
	}

	// At 20 req/s with burst 1, the second and third calls wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond,
		"calls beyond the burst must be paced")
}

func TestRateLimitMiddleware_HonorsContextCancellation(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Limit(0.1), 1)(mock)

	// Drain the single burst token.
	_, _, _, err := wrapped.DoRequest(context.Background(), "first", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, _, err = wrapped.DoRequest(ctx, "second", nil)
	require.Error(t, err, "waiting for a token must respect the context")
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, mock.CallCount, "the provider must not be called without a token")
}
