package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// countingProvider fails a fixed number of times before succeeding.
type countingProvider struct {
	failures int
	calls    int
	err      error
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Infer(ctx context.Context, req Request) (*Response, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, p.err
	}
	return &Response{Text: "ok"}, nil
}

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryableProvider_RecoversFromTransientErrors(t *testing.T) {
	inner := &countingProvider{
		failures: 2,
		err:      &errors.ProviderError{Provider: "counting", Message: "rate limited", Transient: true},
	}
	p := NewRetryableProvider(inner, fastRetryConfig(3))

	resp, err := p.Infer(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryableProvider_ExhaustsBudget(t *testing.T) {
	inner := &countingProvider{
		failures: 10,
		err:      &errors.ProviderError{Provider: "counting", Message: "unavailable", Transient: true},
	}
	p := NewRetryableProvider(inner, fastRetryConfig(2))

	var retries []int
	p.OnRetry(func(attempt int, err error) {
		retries = append(retries, attempt)
	})

	_, err := p.Infer(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)

	var provErr *errors.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, 3, provErr.Attempts)
	assert.False(t, provErr.Transient, "exhausted error must not look retryable to callers")
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryableProvider_DoesNotRetryPermanentErrors(t *testing.T) {
	inner := &countingProvider{
		failures: 10,
		err:      &errors.ProviderError{Provider: "counting", Message: "bad request", Transient: false},
	}
	p := NewRetryableProvider(inner, fastRetryConfig(5))

	_, err := p.Infer(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryableProvider_StopsOnCancellation(t *testing.T) {
	inner := &countingProvider{
		failures: 10,
		err:      &errors.ProviderError{Provider: "counting", Message: "unavailable", Transient: true},
	}
	cfg := fastRetryConfig(5)
	cfg.InitialDelay = 50 * time.Millisecond
	p := NewRetryableProvider(inner, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Infer(ctx, Request{Prompt: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, inner.calls, 3)
}

func TestRateLimitedProvider_RespectsCancellation(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, 0.001, 1)

	// Burn the single burst slot.
	_, err := p.Infer(context.Background(), Request{Prompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Infer(ctx, Request{Prompt: "second"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
