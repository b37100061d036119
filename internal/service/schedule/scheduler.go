package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
)

// ErrNoEntries is returned by New when no expression is configured.
var ErrNoEntries = errors.New("no schedule configured")

// TestTrigger writes scripted TEST records.
type TestTrigger interface {
	TriggerTest(ctx context.Context, kind alert.TestKind) (*alert.Record, error)
}

// Entry binds a cron expression (with seconds) to a reminder kind.
type Entry struct {
	// Expression is the cron expression, e.g. "0 0 6 * * *".
	Expression string
	// Kind is the reminder written when the expression fires.
	Kind alert.TestKind
}

// Scheduler fires reminders through the trigger.
type Scheduler struct {
	// cron runs the jobs.
	cron *cron.Cron
	// trigger writes the records.
	trigger TestTrigger
}

// cronLogger adapts the context logger to cron.Logger.
type cronLogger struct {
	// ctx carries the named logger.
	ctx context.Context //nolint:containedctx // cron.Logger has no context parameter.
}

// Info logs cron internals at debug level.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	logger.DebugKV(l.ctx, msg, keysAndValues...)
}

// Error logs cron failures, including recovered job panics.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.ErrorKV(l.ctx, msg, append(keysAndValues, "error", err)...)
}

// Entries builds the morning and evening entries, skipping empty expressions.
func Entries(morning, evening string) []Entry {
	var entries []Entry

	if expression := strings.TrimSpace(morning); expression != "" {
		entries = append(entries, Entry{Expression: expression, Kind: alert.TestKindScheduledMorning})
	}

	if expression := strings.TrimSpace(evening); expression != "" {
		entries = append(entries, Entry{Expression: expression, Kind: alert.TestKindScheduledEvening})
	}

	return entries
}

// New validates the entries and registers a job for each of them.
func New(ctx context.Context, trigger TestTrigger, entries []Entry) (*Scheduler, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	ctx = logger.WithName(ctx, "schedule")
	log := cronLogger{ctx: ctx}

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(log)),
			cron.WithLogger(log),
		),
		trigger: trigger,
	}

	for _, entry := range entries {
		kind := entry.Kind

		if _, err := s.cron.AddFunc(entry.Expression, func() { s.fire(ctx, kind) }); err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", entry.Expression, err)
		}

		logger.InfoKV(ctx, "Reminder scheduled", "expression", entry.Expression, "kind", kind)
	}

	return s, nil
}

// Run starts the cron and blocks until ctx is done and running jobs have finished.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()

	<-ctx.Done()

	<-s.cron.Stop().Done()
}

// fire writes one reminder. Failures are logged; the next tick tries again.
func (s *Scheduler) fire(ctx context.Context, kind alert.TestKind) {
	if _, err := s.trigger.TriggerTest(ctx, kind); err != nil {
		logger.ErrorKV(ctx, "Scheduled reminder failed", "kind", kind, "error", err)
	}
}
