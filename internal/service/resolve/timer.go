package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
)

// Author is the resolver name written by the timer.
const Author = "Sistem (Auto-Stop)"

// Resolver writes the INACTIVE record.
type Resolver interface {
	Resolve(ctx context.Context, by string) (*alert.Record, error)
}

// Timer schedules the automatic resolve of the observed emergency.
type Timer struct {
	// resolver writes the resolve.
	resolver Resolver
	// maxDuration is measured from the record trigger time.
	maxDuration time.Duration
	// enabled turns the timer on.
	enabled bool

	// mu protects the fields below.
	mu sync.Mutex
	// pending is the scheduled resolve, nil when none.
	pending *time.Timer
	// deadline is the resolve time of the pending timer.
	deadline time.Time
}

// NewTimer creates a timer. A disabled timer only cancels.
func NewTimer(resolver Resolver, maxDuration time.Duration, enabled bool) *Timer {
	return &Timer{
		resolver:    resolver,
		maxDuration: maxDuration,
		enabled:     enabled && maxDuration > 0,
	}
}

// Remaining returns how long the emergency may still run at now.
// A trigger time ahead of now never grants more than maxDuration.
func Remaining(triggeredAt, now time.Time, maxDuration time.Duration) time.Duration {
	return min(maxDuration, max(0, maxDuration-now.Sub(triggeredAt)))
}

// Observe reschedules the resolve for the record. The remaining time is always
// recomputed from the trigger time, so re-observing never extends an emergency.
func (t *Timer) Observe(ctx context.Context, r *alert.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancel()

	if !t.enabled || r == nil || r.Status != alert.StatusActive {
		return
	}

	now := time.Now()
	remaining := Remaining(r.TriggeredAt, now, t.maxDuration)

	logger.DebugKV(ctx, "Auto-resolve scheduled", "remaining", remaining)

	t.deadline = now.Add(remaining)
	t.pending = time.AfterFunc(remaining, func() {
		t.fire(ctx)
	})
}

// Deadline returns the pending resolve time.
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.deadline, t.pending != nil
}

// Stop cancels the pending resolve.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancel()
}

// cancel drops the pending resolve. Callers hold mu.
func (t *Timer) cancel() {
	if t.pending != nil {
		t.pending.Stop()
	}

	t.pending = nil
	t.deadline = time.Time{}
}

// fire writes the resolve.
func (t *Timer) fire(ctx context.Context) {
	t.mu.Lock()
	t.pending = nil
	t.deadline = time.Time{}
	t.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	logger.Info(ctx, "Emergency reached its maximum duration, resolving")

	if _, err := t.resolver.Resolve(ctx, Author); err != nil {
		logger.ErrorKV(ctx, "Failed to auto-resolve emergency", "error", err)
	}
}
