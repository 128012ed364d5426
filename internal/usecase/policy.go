package usecase

import (
	"context"
	"errors"
	"time"
)

// CallPolicy bounds one class of remote call with a per-attempt timeout and
// at most one retry.
type CallPolicy struct {
	Timeout time.Duration
	Retries int
}

func withPolicy[T any](ctx context.Context, policy CallPolicy, call func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := 1 + policy.Retries
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 2 {
		attempts = 2
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if policy.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		}
		result, err := call(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			break
		}
	}
	return zero, lastErr
}
