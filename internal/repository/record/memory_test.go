package record

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// TestMemoryStore_SubscribeDeliversCurrent verifies a new subscriber receives the current record first.
func TestMemoryStore_SubscribeDeliversCurrent(t *testing.T) {
	t.Parallel()

	hub := NewMemoryStore(nil)
	handler, records := collect()

	dispose, err := hub.Subscribe(context.Background(), handler)
	require.NoError(t, err)

	defer dispose()

	require.Equal(t, alert.StatusInactive, next(t, records).Status)

	want := emergency(t, "Budi")
	require.NoError(t, hub.Replace(context.Background(), want))
	require.True(t, want.Equal(next(t, records)))

	got, err := hub.Get(context.Background())
	require.NoError(t, err)
	require.True(t, want.Equal(got))
}

// TestMemoryStore_FanOut verifies every subscriber observes a replacement.
func TestMemoryStore_FanOut(t *testing.T) {
	t.Parallel()

	hub := NewMemoryStore(emergency(t, "Sari"))

	first, firstRecords := collect()
	second, secondRecords := collect()

	disposeFirst, err := hub.Subscribe(context.Background(), first)
	require.NoError(t, err)

	defer disposeFirst()

	disposeSecond, err := hub.Subscribe(context.Background(), second)
	require.NoError(t, err)

	defer disposeSecond()

	require.Equal(t, alert.StatusActive, next(t, firstRecords).Status)
	require.Equal(t, alert.StatusActive, next(t, secondRecords).Status)
	require.Equal(t, 2, hub.Subscribers())

	require.NoError(t, hub.Replace(context.Background(), alert.NewResolved(time.Now())))
	require.Equal(t, alert.StatusInactive, next(t, firstRecords).Status)
	require.Equal(t, alert.StatusInactive, next(t, secondRecords).Status)
}

// TestMemoryStore_Dispose verifies disposers are idempotent and stop delivery.
func TestMemoryStore_Dispose(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		hub := NewMemoryStore(nil)
		handler, records := collect()

		dispose, err := hub.Subscribe(context.Background(), handler)
		require.NoError(t, err)

		synctest.Wait()
		require.Len(t, records, 1)
		<-records

		dispose()
		dispose()
		require.Zero(t, hub.Subscribers())

		require.NoError(t, hub.Replace(context.Background(), emergency(t, "Budi")))
		synctest.Wait()
		require.Empty(t, records)
	})
}

// TestMemoryStore_ContextDone verifies a cancelled context ends the subscription.
func TestMemoryStore_ContextDone(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		hub := NewMemoryStore(nil)
		handler, _ := collect()

		_, err := hub.Subscribe(ctx, handler)
		require.NoError(t, err)

		cancel()
		synctest.Wait()
		require.Zero(t, hub.Subscribers())
	})
}

// TestMemoryStore_CoalescesSlowSubscriber verifies a blocked subscriber only sees the latest record.
func TestMemoryStore_CoalescesSlowSubscriber(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			hub     = NewMemoryStore(nil)
			release = make(chan struct{})
			seen    []*alert.Record
		)

		dispose, err := hub.Subscribe(context.Background(), func(record *alert.Record) {
			<-release

			seen = append(seen, record)
		})
		require.NoError(t, err)

		defer dispose()

		synctest.Wait()

		for _, name := range []string{"Satu", "Dua", "Tiga"} {
			require.NoError(t, hub.Replace(context.Background(), emergency(t, name)))
		}

		close(release)
		synctest.Wait()

		require.Len(t, seen, 2)
		require.Equal(t, alert.StatusInactive, seen[0].Status)
		require.Equal(t, "Tiga", seen[1].ReporterName)
	})
}

// TestMemoryStore_ReturnsCopies verifies callers cannot mutate the stored record.
func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	hub := NewMemoryStore(emergency(t, "Budi"))

	got, err := hub.Get(context.Background())
	require.NoError(t, err)

	got.ReporterName = "Changed"

	again, err := hub.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Budi", again.ReporterName)
}
