package signaling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	start := time.Now()

	val, err := Retry(context.Background(), 3, 10*time.Millisecond, func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, attempts)
	// two inter-attempt delays
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRetryFirstAttemptRunsImmediately(t *testing.T) {
	start := time.Now()

	val, err := Retry(context.Background(), 3, time.Second, func() (string, error) {
		return "ok", nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	delay := 50 * time.Millisecond
	start := time.Now()

	_, err := Retry(context.Background(), 3, delay, func() (int, error) {
		attempts++
		return 0, errors.New("boom")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	// two inter-attempt delays, none after the final failure
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 3*delay)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Errs, 3)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestRetryPredicateStopsEarly(t *testing.T) {
	attempts := 0
	fatal := errors.New("fatal")

	_, err := Retry(context.Background(), 5, time.Millisecond, func() (int, error) {
		attempts++
		return 0, fatal
	}, func(triesLeft int, errs []error) bool {
		return !errors.Is(errs[len(errs)-1], fatal)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Errs, 1)
	assert.ErrorIs(t, err, fatal)
}

func TestRetryPredicateSeesTriesLeft(t *testing.T) {
	var seen []int

	_, err := Retry(context.Background(), 3, time.Millisecond, func() (int, error) {
		return 0, errors.New("boom")
	}, func(triesLeft int, errs []error) bool {
		seen = append(seen, triesLeft)
		return true
	})

	require.Error(t, err)
	assert.Equal(t, []int{2, 1, 0}, seen)
}

func TestRetryContextCancelInterruptsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Retry(ctx, 3, time.Hour, func() (int, error) {
		attempts++
		return 0, errors.New("boom")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
