// Copyright © 2024 The Procq Project.

package procq

import (
	"context"
	"time"
)

// RetryPolicy bounds how long a query waits for an expectation to be met.
// The delay is fixed; there is no backoff growth.
type RetryPolicy struct {
	// Attempts is the total number of invocations, including the first.
	// It must be at least 1.
	Attempts int

	// Delay is the wait between consecutive attempts. Zero is allowed.
	Delay time.Duration
}

// retry invokes query up to policy.Attempts times, sleeping policy.Delay
// between attempts. Failures are not classified as retryable or fatal:
// every failure is retried up to the bound, and the final failure carries
// only the last underlying error. Intermediate errors are discarded.
func retry[T any](policy RetryPolicy, query func() (T, error)) (T, error) {
	var zero T
	if policy.Attempts < 1 {
		return zero, &ConfigError{Reason: "retry policy requires at least one attempt"}
	}

	var err error
	for n := 0; n < policy.Attempts; n++ {
		if n > 0 {
			time.Sleep(policy.Delay)
		}
		var results T
		if results, err = query(); err == nil {
			return results, nil
		}
	}
	return zero, err
}

// retryContext is retry with a cooperative wait: the inter-attempt delay
// selects on ctx, so cancellation while suspended aborts the loop without
// invoking the next attempt. The underlying snapshot queries are brief and
// run synchronously within each attempt.
func retryContext[T any](ctx context.Context, policy RetryPolicy, query func() (T, error)) (T, error) {
	var zero T
	if policy.Attempts < 1 {
		return zero, &ConfigError{Reason: "retry policy requires at least one attempt"}
	}

	var err error
	for n := 0; n < policy.Attempts; n++ {
		if n > 0 {
			timer := time.NewTimer(policy.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
		var results T
		if results, err = query(); err == nil {
			return results, nil
		}
	}
	return zero, err
}
