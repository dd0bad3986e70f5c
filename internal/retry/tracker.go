package retry

import (
	"time"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Tracker owns the RetryState of a single run. It is not safe for concurrent
// use; a run is strictly sequential.
type Tracker struct {
	state    credprobe.RetryState
	strategy credprobe.BackoffStrategy
	sleeps   int
}

// NewTracker starts a fresh budget drawn from strategy.
func NewTracker(strategy credprobe.BackoffStrategy) *Tracker {
	return &Tracker{
		strategy: strategy,
		state: credprobe.RetryState{
			Limit:        strategy.MaxAttempts(),
			WaitInterval: strategy.NextDelay(0),
		},
	}
}

// Begin records the start of an attempt and returns its 1-based number.
func (t *Tracker) Begin() int {
	t.state.AttemptsMade++
	return t.state.AttemptsMade
}

// RecordRetryable remembers err as the most recent authentication failure.
func (t *Tracker) RecordRetryable(err error) {
	t.state.LastErr = err
}

// NextDelay returns the wait before the next attempt and counts it as a sleep.
func (t *Tracker) NextDelay() time.Duration {
	t.state.WaitInterval = t.strategy.NextDelay(t.sleeps)
	t.sleeps++
	return t.state.WaitInterval
}

// Exhausted reports whether the attempt ceiling has been reached.
func (t *Tracker) Exhausted() bool {
	return t.state.Exhausted()
}

// State returns a copy of the current state.
func (t *Tracker) State() credprobe.RetryState {
	return t.state
}

// Sleeps returns how many inter-attempt waits were scheduled.
func (t *Tracker) Sleeps() int {
	return t.sleeps
}
