package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	policy := Policy{Delay: time.Millisecond}

	calls := 0
	var notified []int
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("broker unavailable")
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		notified = append(notified, attempt)
		assert.Equal(t, time.Millisecond, next)
		assert.EqualError(t, err, "broker unavailable")
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := Policy{Delay: time.Hour}.Do(context.Background(), func() error {
		calls++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_Permanent(t *testing.T) {
	sentinel := errors.New("bad credentials")

	calls := 0
	err := Policy{Delay: time.Millisecond}.Do(context.Background(), func() error {
		calls++
		return Permanent(sentinel)
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	err := Policy{Delay: 5 * time.Millisecond}.Do(ctx, func() error {
		calls++
		return errors.New("still down")
	}, nil)

	require.Error(t, err)
	assert.Greater(t, calls, 1)
}
