package llm

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries).
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (typically 2.0 for exponential).
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd (0.0-1.0).
	Jitter float64

	// Retryable is a function that determines if an error should trigger
	// a retry. If nil, transient provider errors and timeouts are retried.
	Retryable func(error) bool
}

// DefaultRetryConfig returns sensible default retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// RetryableProvider wraps a provider with bounded retry logic. Transient
// failures are retried with exponential backoff; once the attempt budget
// is exhausted the last error surfaces as a non-transient ProviderError
// carrying the attempt count.
type RetryableProvider struct {
	provider Provider
	config   RetryConfig

	// onRetry, when set, is invoked before each retry attempt. Used for
	// retry telemetry.
	onRetry func(attempt int, err error)
}

// NewRetryableProvider wraps a provider with retry logic.
func NewRetryableProvider(provider Provider, config RetryConfig) *RetryableProvider {
	if config.Retryable == nil {
		config.Retryable = errors.IsTransient
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}

	return &RetryableProvider{
		provider: provider,
		config:   config,
	}
}

// OnRetry registers a callback invoked before each retry attempt.
func (r *RetryableProvider) OnRetry(fn func(attempt int, err error)) *RetryableProvider {
	r.onRetry = fn
	return r
}

// Name returns the wrapped provider's name.
func (r *RetryableProvider) Name() string {
	return r.provider.Name()
}

// Infer executes an inference request with retry logic.
func (r *RetryableProvider) Infer(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if r.onRetry != nil {
				r.onRetry(attempt, lastErr)
			}
			delay := r.calculateBackoff(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := r.provider.Infer(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !r.config.Retryable(err) {
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &errors.ProviderError{
		Provider: r.provider.Name(),
		Message:  "reasoning provider unavailable: " + lastErr.Error(),
		Attempts: r.config.MaxRetries + 1,
		Cause:    lastErr,
	}
}

// calculateBackoff computes the delay for a given attempt with jitter.
func (r *RetryableProvider) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))

	if r.config.MaxDelay > 0 && backoff > float64(r.config.MaxDelay) {
		backoff = float64(r.config.MaxDelay)
	}

	if r.config.Jitter > 0 {
		jitterAmount := backoff * r.config.Jitter
		backoff += (rand.Float64() * 2 * jitterAmount) - jitterAmount
	}

	return time.Duration(backoff)
}
