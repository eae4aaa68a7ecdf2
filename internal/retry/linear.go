package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultUnit is the backoff time unit used by the provider adapters.
const DefaultUnit = time.Second

// LinearBackOff waits (1+n)*Unit before the n-th retry (n starting at 1).
type LinearBackOff struct {
	Unit    time.Duration
	attempt int
}

func (b *LinearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(1+b.attempt) * b.Unit
}

func (b *LinearBackOff) Reset() { b.attempt = 0 }

// Notify is called after a failed attempt that will be retried.
type Notify func(attempt int, err error, wait time.Duration)

// Linear runs op up to attempts times in total with linear backoff between
// attempts and returns the last error once they are exhausted. A cancelled
// context stops waiting and returns the context error. Wrap an error with
// Permanent to stop retrying immediately.
func Linear(ctx context.Context, attempts int, unit time.Duration, op func() error, notify Notify) error {
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&LinearBackOff{Unit: unit}, uint64(attempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return op()
	}, b, func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempt, err, wait)
		}
	})
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
