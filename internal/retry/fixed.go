package retry

import (
	"fmt"
	"time"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// FixedInterval implements BackoffStrategy with a constant delay and a fixed
// attempt ceiling. The expected wait is a short propagation delay, so the
// delay never grows and carries no jitter.
type FixedInterval struct {
	interval    time.Duration
	maxAttempts int
}

var _ credprobe.BackoffStrategy = (*FixedInterval)(nil)

// NewFixedInterval creates a strategy allowing maxAttempts attempts separated
// by interval. maxAttempts must be at least 1 and interval non-negative.
func NewFixedInterval(maxAttempts int, interval time.Duration) (*FixedInterval, error) {
	if maxAttempts < 1 {
		return nil, fmt.Errorf("attempt limit must be at least 1, got %d: %w", maxAttempts, credprobe.ErrInvalidConfig)
	}
	if interval < 0 {
		return nil, fmt.Errorf("wait interval cannot be negative, got %v: %w", interval, credprobe.ErrInvalidConfig)
	}
	return &FixedInterval{interval: interval, maxAttempts: maxAttempts}, nil
}

// NextDelay returns the fixed interval regardless of attempt.
func (f *FixedInterval) NextDelay(int) time.Duration {
	return f.interval
}

// MaxAttempts returns the total number of attempts allowed.
func (f *FixedInterval) MaxAttempts() int {
	return f.maxAttempts
}
