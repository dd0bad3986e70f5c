package retry

import (
	"context"
	"time"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// TimerSleeper blocks for the requested duration, returning early with the
// context's error if it is cancelled first.
type TimerSleeper struct{}

var _ credprobe.Sleeper = TimerSleeper{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
