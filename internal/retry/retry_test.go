package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jthawme/spotify-ambient-display/internal/retry"
)

var testPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   time.Millisecond,
	RateLimitBackoff: 2 * time.Millisecond,
}

func alwaysRetry(error) retry.Action { return retry.Retry }

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), testPolicy, alwaysRetry, func() (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), testPolicy, alwaysRetry, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	boom := errors.New("bad request")
	classify := func(error) retry.Action { return retry.Stop }

	calls := 0
	_, err := retry.Do(context.Background(), testPolicy, classify, func() (int, error) {
		calls++
		return 0, boom
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var perm *retry.PermanentError
	assert.ErrorAs(t, err, &perm)
	assert.ErrorIs(t, err, boom)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("still down")
	calls := 0
	_, err := retry.Do(context.Background(), testPolicy, alwaysRetry, func() (int, error) {
		calls++
		return 0, boom
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, boom)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := retry.Policy{MaxAttempts: 5, InitialBackoff: time.Minute}
	_, err := retry.Do(ctx, policy, alwaysRetry, func() (int, error) {
		return 0, errors.New("flaky")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoVoid(t *testing.T) {
	calls := 0
	err := retry.DoVoid(context.Background(), testPolicy, alwaysRetry, func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
