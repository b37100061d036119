package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/repository/history"
)

// errHistoryDown simulates an unavailable history database.
var errHistoryDown = errors.New("history unavailable")

// recorder collects observed records.
type recorder struct {
	mu      sync.Mutex
	records []*alert.Record
}

// Observe records the record.
func (r *recorder) Observe(_ context.Context, record *alert.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record)
}

// Append records the record as a history entry.
func (r *recorder) Append(_ context.Context, record *alert.Record) (string, error) {
	r.Observe(context.Background(), record)

	return "id", nil
}

// List is unused by the monitor.
func (r *recorder) List(context.Context, int) ([]*history.Entry, error) {
	return nil, nil
}

// Notify records the record as a notification.
func (r *recorder) Notify(ctx context.Context, record *alert.Record) error {
	r.Observe(ctx, record)

	return nil
}

// reporters returns the reporter names of the collected records.
func (r *recorder) reporters() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.records))
	for _, record := range r.records {
		names = append(names, record.ReporterName)
	}

	return names
}

// failingHistory fails every append.
type failingHistory struct {
	recorder
}

// Append fails.
func (*failingHistory) Append(context.Context, *alert.Record) (string, error) {
	return "", errHistoryDown
}

// emergency builds an ACTIVE record.
func emergency(t *testing.T, name string) *alert.Record {
	t.Helper()

	r, err := alert.NewEmergency(time.Now(), alert.Emergency{Name: name})
	require.NoError(t, err)

	return r
}

// TestMonitor_Handle verifies the fan-out of observed records.
func TestMonitor_Handle(t *testing.T) {
	t.Parallel()

	var (
		scheduler = new(recorder)
		timer     = new(recorder)
		hist      = new(recorder)
		notifier  = new(recorder)
		mon       = New(Dependencies{
			Scheduler: scheduler,
			Timer:     timer,
			History:   hist,
			Notifier:  notifier,
			Self:      "Siti",
		})
		ctx = t.Context()
	)

	drill, err := alert.NewTest(time.Now(), alert.TestKindGeneric)
	require.NoError(t, err)

	budi := emergency(t, "Budi")

	mon.Handle(ctx, alert.Inactive())
	mon.Handle(ctx, budi)
	mon.Handle(ctx, budi.Clone())
	mon.Handle(ctx, drill)
	mon.Handle(ctx, emergency(t, "Siti"))
	mon.Handle(ctx, nil)
	mon.Wait()

	require.Len(t, scheduler.records, 6)
	require.Len(t, timer.records, 6)
	require.Equal(t, alert.StatusInactive, scheduler.records[5].Status)

	require.Equal(t, []string{"Budi", drill.ReporterName, "Siti"}, hist.reporters())
	require.Equal(t, []string{"Budi"}, notifier.reporters())
}

// TestMonitor_OptionalCollaborators verifies missing or failing collaborators never block the cycle.
func TestMonitor_OptionalCollaborators(t *testing.T) {
	t.Parallel()

	var (
		scheduler = new(recorder)
		timer     = new(recorder)
	)

	New(Dependencies{Scheduler: scheduler, Timer: timer}).Handle(t.Context(), emergency(t, "Budi"))

	New(Dependencies{
		Scheduler: scheduler,
		Timer:     timer,
		History:   new(failingHistory),
	}).Handle(t.Context(), emergency(t, "Budi"))

	require.Len(t, scheduler.records, 2)
	require.Len(t, timer.records, 2)
}
