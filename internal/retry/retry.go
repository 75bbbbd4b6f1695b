// Package retry implements the bounded exponential-backoff-with-jitter
// envelope used by every outbound dependency: the forge API, the LLM
// runtime, the queue, and the secret store.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config mirrors the original system's RetryConfig dataclass.
type Config struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterRatio  float64
}

// DefaultConfig matches the spec's defaults: 5 attempts, 250ms base, 10s cap,
// 30% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		JitterRatio: 0.30,
	}
}

// IsRetryableErr reports whether an error returned by the operation should
// be retried.
type IsRetryableErr func(error) bool

// IsRetryableResult reports whether a successful result should nonetheless
// be retried (e.g. an HTTP 429 surfaced as a non-error response).
type IsRetryableResult[T any] func(T) bool

// sleepFor computes attempt n's sleep duration: min(base*2^(n-1), max) *
// U(1, 1+jitter). n is 1-based.
func sleepFor(cfg Config, n int, rng *rand.Rand) time.Duration {
	backoff := cfg.BaseDelay * time.Duration(1<<uint(n-1))
	if backoff > cfg.MaxDelay {
		backoff = cfg.MaxDelay
	}
	jitter := 1.0
	if cfg.JitterRatio > 0 {
		jitter += rng.Float64() * cfg.JitterRatio
	}
	return time.Duration(float64(backoff) * jitter)
}

// Call runs fn, retrying per cfg when isRetryableErr(err) or
// isRetryableResult(result) is true. It does not sleep after the final
// attempt; it returns the last result/error instead.
func Call[T any](ctx context.Context, operationName string, cfg Config, fn func(context.Context) (T, error), isRetryableErr IsRetryableErr, isRetryableResult IsRetryableResult[T]) (T, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var zero T
	var lastErr error
	var lastResult T

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if isRetryableResult == nil || !isRetryableResult(result) {
				return result, nil
			}
			lastResult = result
			lastErr = nil
		} else {
			if isRetryableErr == nil || !isRetryableErr(err) {
				return zero, err
			}
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(sleepFor(cfg, attempt, rng)):
		}
	}

	if lastErr != nil {
		return zero, lastErr
	}
	return lastResult, nil
}
