package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	}, 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("permanent")
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return wantErr
	}, 3, time.Millisecond)

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errors.New("never seen")
	}, 3, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestRetryWithBackoff_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	}, 3, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "backoff sleep aborted by cancellation")
}
