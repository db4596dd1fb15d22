package beatmapfile

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Default pauses around a download.
const (
	DefaultDelayBefore = time.Second
	DefaultDelayAfter  = 500 * time.Millisecond
)

// Gate admits one download at a time and holds the slot for a fixed pause
// before and after each download.
type Gate struct {
	sem    *semaphore.Weighted
	before time.Duration
	after  time.Duration
}

// NewGate creates a single-slot gate with the given pauses.
func NewGate(before, after time.Duration) *Gate {
	return &Gate{
		sem:    semaphore.NewWeighted(1),
		before: before,
		after:  after,
	}
}

// Do waits for the slot, sleeps, runs fn, sleeps again and releases the slot.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	if err := sleep(ctx, g.before); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}
	return sleep(ctx, g.after)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
