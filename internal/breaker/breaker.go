// Package breaker wraps outbound forge and LLM calls in a circuit breaker
// so a sustained outage trips open instead of retrying into a wall. It
// complements, and sits outside, internal/retry.
package breaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// New builds a gobreaker.CircuitBreaker tuned for an outbound dependency:
// opens after 5 consecutive failures, half-opens after 30s, and requires 2
// consecutive successes in the half-open state to fully close.
func New(name string) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// Do runs fn through cb, translating gobreaker's interface{} result back to T.
func Do[T any](cb *gobreaker.CircuitBreaker, fn func(context.Context) (T, error), ctx context.Context) (T, error) {
	var zero T
	result, err := cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}
