// Package clock provides the Clock/Timer service abstraction named in
// SPEC_FULL.md §2, and the two cancellable timer tasks HostEndpoint starts
// at meeting Start (SPEC_FULL.md §4.3, §5, §9 "Timer cancellation").
//
// Grounded on original_source/apps/meeting/utils.py's
// meeting_duration_counter: "runs forever; returns elapsed seconds on
// cancel" (spec.md §9), re-expressed here as a cancellable goroutine over a
// time.Ticker instead of an asyncio cancellable sleep loop. No pack example
// reaches for a scheduling library for this kind of in-process cancellable
// timer — robfig/cron is wired separately into ExportReaper for its actual
// cron-schedule use case — so this seam is deliberately left on the
// standard library's time/context primitives (see DESIGN.md).
package clock

import (
	"context"
	"time"
)

// Clock is the time source DurationCounter ticks on. The default is the real
// wall clock; tests may substitute a fake. AutoEndTimer does not take a
// Clock: it always runs on time.NewTimer.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) *time.Ticker
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// Real is the production Clock implementation.
var Real Clock = realClock{}

// DurationCounter increments an integer every second until ctx is cancelled,
// then returns the final count on the returned channel. The contract
// matches spec.md §4.3's "duration counter": "runs forever; returns elapsed
// seconds on cancel."
func DurationCounter(ctx context.Context, c Clock) <-chan int {
	result := make(chan int, 1)
	go func() {
		ticker := c.NewTicker(1 * time.Second)
		defer ticker.Stop()
		count := 0
		for {
			select {
			case <-ctx.Done():
				result <- count
				return
			case <-ticker.C:
				count++
			}
		}
	}()
	return result
}

// AutoEndTimer fires fn exactly once after duration, unless ctx is cancelled
// first. Used for the auto-end timer that forces a meeting to END at
// duration_minutes * 60s (spec.md §5, ±2s precision requirement).
func AutoEndTimer(ctx context.Context, duration time.Duration, fn func()) {
	go func() {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fn()
		}
	}()
}
