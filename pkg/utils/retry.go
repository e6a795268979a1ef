package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions contains configuration for retry behavior.
type RetryOptions struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64

	// Retryable reports whether a failed attempt may be retried. Nil retries every error.
	Retryable func(err error) bool
	// OnRetry is called with the failure and the wait before the next attempt.
	OnRetry func(err error, wait time.Duration)
}

// GetSettlementRetryOptions returns retry options for deposit settlement against the ledger.
func GetSettlementRetryOptions() RetryOptions {
	return RetryOptions{
		MaxElapsedTime:  30 * time.Second,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxRetries:      4,
	}
}

// WithRetry runs operation with exponential backoff until it succeeds, the options are
// exhausted or ctx ends. Errors wrapped with backoff.Permanent, or rejected by
// opts.Retryable, stop the retries and are returned unwrapped.
func WithRetry[T any](ctx context.Context, operation func() (T, error), opts RetryOptions) (T, error) {
	var result T

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(opts.MaxElapsedTime),
		backoff.WithInitialInterval(opts.InitialInterval),
		backoff.WithMaxInterval(opts.MaxInterval),
	), opts.MaxRetries)

	attempt := func() error {
		var err error
		result, err = operation()
		if err != nil && opts.Retryable != nil && !opts.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(policy, ctx), opts.OnRetry)
	return result, err
}
