package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds how often an operation is attempted and how long to wait
// between attempts. The zero value means a single attempt with no delay.
type Policy struct {
	MaxAttempts uint
	Backoff     time.Duration
}

// Do runs op until it succeeds, returns a permanent error, or the policy is
// exhausted. The delay between attempts is fixed at p.Backoff.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Backoff)),
		backoff.WithMaxTries(attempts),
	)
}

// Permanent marks err as non-retryable so Do stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
