package monitor

import (
	"context"
	"sync"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/history"
	"github.com/oshokin/alert-broadcast/internal/service/notify"
)

// RecordObserver consumes observed records.
type RecordObserver interface {
	Observe(ctx context.Context, r *alert.Record)
}

// Dependencies are the consumers of observed records.
// History and Notifier are optional.
type Dependencies struct {
	// Scheduler drives the audible cycle.
	Scheduler RecordObserver
	// Timer resolves emergencies that run too long.
	Timer RecordObserver
	// History receives every new alerting record.
	History history.Repository
	// Notifier announces new emergencies.
	Notifier notify.Notifier
	// Self is the reporter name of this device; its own emergencies are not notified.
	Self string
}

// Monitor fans observed records out to the client collaborators.
type Monitor struct {
	// deps are the record consumers.
	deps Dependencies

	// mu protects last.
	mu sync.Mutex
	// last is the previously observed record.
	last *alert.Record
	// wg tracks notifications in flight.
	wg sync.WaitGroup
}

// New creates a monitor.
func New(deps Dependencies) *Monitor {
	return &Monitor{
		deps: deps,
	}
}

// Handle processes one observed record.
func (m *Monitor) Handle(ctx context.Context, r *alert.Record) {
	if r == nil {
		r = alert.Inactive()
	}

	m.mu.Lock()
	previous := m.last
	m.last = r.Clone()
	m.mu.Unlock()

	logger.DebugKV(ctx, "Record observed", "status", r.Status, "reporter", r.ReporterName)

	m.deps.Timer.Observe(ctx, r)
	m.deps.Scheduler.Observe(ctx, r)

	if !r.IsAlerting() || r.Equal(previous) {
		return
	}

	m.appendHistory(ctx, r)

	if r.Status == alert.StatusActive {
		m.notify(ctx, r)
	}
}

// Wait blocks until the notifications in flight are sent.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// appendHistory logs the record to the history collaborator.
func (m *Monitor) appendHistory(ctx context.Context, r *alert.Record) {
	if m.deps.History == nil {
		return
	}

	id, err := m.deps.History.Append(ctx, r)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to append alert history", "error", err)

		return
	}

	logger.DebugKV(ctx, "Alert history appended", "id", id)
}

// notify announces an emergency raised by another device in the background.
func (m *Monitor) notify(ctx context.Context, r *alert.Record) {
	if m.deps.Notifier == nil || (m.deps.Self != "" && r.ReporterName == m.deps.Self) {
		return
	}

	m.wg.Go(func() {
		if err := m.deps.Notifier.Notify(ctx, r); err != nil {
			logger.WarnKV(ctx, "Failed to send emergency notification", "error", err)

			return
		}

		logger.InfoKV(ctx, "Emergency notification sent", "reporter", r.ReporterName)
	})
}
