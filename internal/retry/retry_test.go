package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, nil, Options{Tries: 3, Delay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	retried := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, nil, Options{
		Tries: 5,
		Delay: time.Millisecond,
		OnRetry: func(attempt int, err error) {
			retried++
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retried)
}

func TestDoExhaustsAndReturnsLastError(t *testing.T) {
	wantErr := errors.New("still broken")
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	}, nil, Options{Tries: 3, Delay: time.Millisecond})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestDoValidateFailureTriggersRetry(t *testing.T) {
	rows := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		rows += 10
		return nil
	}, func() error {
		if rows < 25 {
			return errors.New("too few rows")
		}
		return nil
	}, Options{Tries: 5, Delay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 30, rows)
}

func TestDoValidateExhaustion(t *testing.T) {
	err := Do(context.Background(), func(ctx context.Context) error {
		return nil
	}, func() error {
		return errors.New("post-condition never holds")
	}, Options{Tries: 2, Delay: time.Millisecond})

	assert.EqualError(t, err, "post-condition never holds")
}

func TestDoContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("fail")
	}, nil, Options{Tries: 10, Delay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoZeroTriesStillRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, nil, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
