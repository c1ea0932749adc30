package signaling

import (
	"context"
	"time"
)

// RetryPredicate decides whether another attempt should run after a failure.
// triesLeft is the number of attempts remaining, errs holds every error
// collected so far, oldest first.
type RetryPredicate func(triesLeft int, errs []error) bool

// Retry invokes fn until it succeeds, up to tries attempts, waiting delay
// between attempts. No delay is applied before the first attempt or after the
// final failing one. Success short-circuits immediately and returns fn's value.
// When keepGoing is non-nil it is consulted after each failure and can stop the
// loop early. Exhaustion returns a RetryExhaustedError carrying the ordered
// list of collected errors. Attempts never run concurrently; cancelling ctx
// interrupts the inter-attempt wait.
func Retry[T any](ctx context.Context, tries int, delay time.Duration, fn func() (T, error), keepGoing RetryPredicate) (T, error) {
	var zero T

	if tries < 1 {
		tries = 1
	}
	errs := make([]error, 0, tries)

	for attempt := 0; attempt < tries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				errs = append(errs, ctx.Err())
				return zero, &RetryExhaustedError{Errs: errs}
			}
		}
		val, err := fn()
		if err == nil {
			return val, nil
		}
		errs = append(errs, err)

		if keepGoing != nil && !keepGoing(tries-attempt-1, errs) {
			break
		}
	}

	return zero, &RetryExhaustedError{Errs: errs}
}
