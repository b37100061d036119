package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
)

// errOffline simulates a failed write.
var errOffline = errors.New("offline")

// fixedNow is the write time used by the tests.
//
//nolint:gochecknoglobals // Test fixture.
var fixedNow = time.UnixMilli(1_700_000_000_000)

// failingStore rejects every write and counts attempts.
type failingStore struct {
	record.Store

	// attempts counts Replace calls.
	attempts int
}

// Replace always fails.
func (s *failingStore) Replace(context.Context, *alert.Record) error {
	s.attempts++

	return errOffline
}

// slowLocator blocks until the context is done.
type slowLocator struct{}

// Locate waits for cancellation.
func (slowLocator) Locate(ctx context.Context) (*alert.Location, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

// newProducer creates a producer over a memory hub.
func newProducer(opts ...Option) (*Producer, *record.Hub) {
	hub := record.NewMemoryStore(nil)

	return New(hub, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...), hub
}

// TestProducer_Trigger verifies an emergency with a location replaces the record.
func TestProducer_Trigger(t *testing.T) {
	t.Parallel()

	location := &alert.Location{Latitude: -6.2, Longitude: 106.8}
	p, hub := newProducer(WithLocator(StaticLocator{Location: location}))

	written, err := p.Trigger(context.Background(), EmergencyRequest{
		Name:         " Budi ",
		Area:         "RT 03",
		IncidentType: "Kebakaran",
	})
	require.NoError(t, err)
	require.Equal(t, alert.StatusActive, written.Status)
	require.Equal(t, "Budi", written.ReporterName)
	require.True(t, location.Equal(written.Location))
	require.True(t, fixedNow.Equal(written.TriggeredAt))

	stored, err := hub.Get(context.Background())
	require.NoError(t, err)
	require.True(t, written.Equal(stored))
}

// TestProducer_Trigger_WithoutLocation verifies a failed location read still sends the emergency.
func TestProducer_Trigger_WithoutLocation(t *testing.T) {
	t.Parallel()

	p, _ := newProducer(WithLocator(slowLocator{}), WithLocateTimeout(10*time.Millisecond))

	written, err := p.Trigger(context.Background(), EmergencyRequest{Name: "Budi"})
	require.NoError(t, err)
	require.Nil(t, written.Location)

	p, _ = newProducer(WithLocator(StaticLocator{}))

	written, err = p.Trigger(context.Background(), EmergencyRequest{Name: "Budi"})
	require.NoError(t, err)
	require.Nil(t, written.Location)
}

// TestProducer_Trigger_RequiresName verifies invalid emergencies are never written.
func TestProducer_Trigger_RequiresName(t *testing.T) {
	t.Parallel()

	p, hub := newProducer()

	_, err := p.Trigger(context.Background(), EmergencyRequest{Name: "  "})
	require.ErrorIs(t, err, alert.ErrReporterRequired)

	stored, err := hub.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, alert.StatusInactive, stored.Status)
}

// TestProducer_TriggerTest verifies scripted tests carry their kind.
func TestProducer_TriggerTest(t *testing.T) {
	t.Parallel()

	p, _ := newProducer()

	written, err := p.TriggerTest(context.Background(), alert.TestKindScheduledMorning)
	require.NoError(t, err)
	require.Equal(t, alert.StatusTest, written.Status)
	require.Equal(t, alert.TestKindScheduledMorning, written.TestKind)

	_, err = p.TriggerTest(context.Background(), alert.TestKindFreeAnnouncement)
	require.Error(t, err)
}

// TestProducer_TriggerAnnouncement verifies the announcement text is stored verbatim.
func TestProducer_TriggerAnnouncement(t *testing.T) {
	t.Parallel()

	p, _ := newProducer()

	written, err := p.TriggerAnnouncement(context.Background(), "Kerja bakti besok pagi.")
	require.NoError(t, err)
	require.Equal(t, alert.TestKindFreeAnnouncement, written.TestKind)
	require.Equal(t, "Kerja bakti besok pagi.", written.AnnouncementText)

	_, err = p.TriggerAnnouncement(context.Background(), " ")
	require.ErrorIs(t, err, alert.ErrAnnouncementText)
}

// TestProducer_Resolve verifies resolving writes INACTIVE and Status reads it back.
func TestProducer_Resolve(t *testing.T) {
	t.Parallel()

	p, _ := newProducer()

	_, err := p.Trigger(context.Background(), EmergencyRequest{Name: "Budi"})
	require.NoError(t, err)

	written, err := p.Resolve(context.Background(), "Pos Satpam")
	require.NoError(t, err)
	require.Equal(t, alert.StatusInactive, written.Status)
	require.Empty(t, written.ReporterName)

	current, err := p.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, alert.StatusInactive, current.Status)
}

// TestProducer_WriteFailure verifies a failed write is reported once without retries.
func TestProducer_WriteFailure(t *testing.T) {
	t.Parallel()

	store := new(failingStore)
	p := New(store)

	_, err := p.TriggerTest(context.Background(), alert.TestKindGeneric)
	require.ErrorIs(t, err, errOffline)
	require.Equal(t, 1, store.attempts)
}
