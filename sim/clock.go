package sim

import (
	"context"
	"time"
)

// Clock is the wall-time source that paces a run.
type Clock interface {
	Now() time.Time
	// Sleep parks the caller for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// WallClock paces the simulation against real time.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

func (WallClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// VirtualClock is a manually advanced clock. Sleep returns immediately after
// moving the clock forward, so a run completes instantly while producing the
// same event order as a wall-clock run.
//
// Thread-safety: NOT thread-safe. Must be used from a single goroutine.
type VirtualClock struct {
	now   time.Time
	slept time.Duration
}

// NewVirtualClock creates a VirtualClock starting at the Unix epoch.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{now: time.Unix(0, 0).UTC()}
}

func (c *VirtualClock) Now() time.Time { return c.now }

func (c *VirtualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	c.slept += d
	return nil
}

// Advance moves the clock forward by d without counting it as sleep.
func (c *VirtualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Slept returns the total time callers spent in Sleep, i.e. the wall time a
// real run would have taken.
func (c *VirtualClock) Slept() time.Duration { return c.slept }
