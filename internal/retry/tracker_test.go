package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_BudgetLifecycle(t *testing.T) {
	strategy, err := NewFixedInterval(3, 5*time.Millisecond)
	require.NoError(t, err)
	tracker := NewTracker(strategy)

	state := tracker.State()
	assert.Equal(t, 0, state.AttemptsMade)
	assert.Equal(t, 3, state.Limit)
	assert.Equal(t, 5*time.Millisecond, state.WaitInterval)
	assert.False(t, tracker.Exhausted())

	authErr := errors.New("auth failed")
	for i := 1; i <= 3; i++ {
		assert.Equal(t, i, tracker.Begin())
		tracker.RecordRetryable(authErr)
		if i < 3 {
			assert.False(t, tracker.Exhausted())
			assert.Equal(t, 5*time.Millisecond, tracker.NextDelay())
		}
	}

	assert.True(t, tracker.Exhausted())
	assert.Equal(t, 2, tracker.Sleeps())
	assert.Equal(t, authErr, tracker.State().LastErr)
}
