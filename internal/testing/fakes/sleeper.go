package fakes

import (
	"context"
	"sync"
	"time"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Sleeper records requested sleeps without blocking.
type Sleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

var _ credprobe.Sleeper = (*Sleeper)(nil)

func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	return nil
}

// Sleeps returns every duration passed to Sleep, in order.
func (s *Sleeper) Sleeps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}
