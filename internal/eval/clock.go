package eval

import (
	"context"
	"time"
)

// Clock supplies wall-clock time for deadline checks. Tests substitute a
// manually advanced clock.
type Clock func() time.Time

// Sleeper pauses between retry attempts and category steps, honoring
// context cancellation. Tests substitute a recording no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

func systemClock() time.Time {
	return time.Now()
}

func systemSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
