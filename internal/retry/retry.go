// Package retry provides the fixed-delay, unbounded retry policy used for broker connection.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy retries an operation with a constant delay and no attempt limit.
type Policy struct {
	Delay time.Duration
}

// Notify is called after each failed attempt with the error and the wait before the next one.
type Notify func(attempt int, err error, next time.Duration)

// Permanent wraps err so that Do stops retrying and returns it.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, or ctx is done.
func (p Policy) Do(ctx context.Context, op func() error, notify Notify) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(p.Delay), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return op()
	}, b, func(err error, next time.Duration) {
		if notify != nil {
			notify(attempt, err, next)
		}
	})
}
