package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// recordingTrigger collects the requested kinds.
type recordingTrigger struct {
	// kinds receives every fired kind.
	kinds chan alert.TestKind
	// mu guards panicOnce.
	mu sync.Mutex
	// panicOnce makes the first call panic.
	panicOnce bool
}

// TriggerTest records the kind.
func (r *recordingTrigger) TriggerTest(_ context.Context, kind alert.TestKind) (*alert.Record, error) {
	r.mu.Lock()
	shouldPanic := r.panicOnce
	r.panicOnce = false
	r.mu.Unlock()

	if shouldPanic {
		panic("boom")
	}

	r.kinds <- kind

	return alert.NewTest(time.Now(), kind)
}

// TestEntries verifies empty expressions are skipped.
func TestEntries(t *testing.T) {
	t.Parallel()

	require.Empty(t, Entries("", " "))
	require.Equal(t, []Entry{
		{Expression: "0 0 6 * * *", Kind: alert.TestKindScheduledMorning},
	}, Entries("0 0 6 * * *", ""))
	require.Len(t, Entries("0 0 6 * * *", "0 0 21 * * *"), 2)
}

// TestNew_Validation verifies missing and malformed expressions are rejected.
func TestNew_Validation(t *testing.T) {
	t.Parallel()

	trigger := &recordingTrigger{kinds: make(chan alert.TestKind, 1)}

	_, err := New(context.Background(), trigger, nil)
	require.ErrorIs(t, err, ErrNoEntries)

	_, err = New(context.Background(), trigger, []Entry{{Expression: "every morning", Kind: alert.TestKindScheduledMorning}})
	require.Error(t, err)
}

// TestScheduler_Fires verifies a due entry writes its reminder and survives a panicking run.
func TestScheduler_Fires(t *testing.T) {
	t.Parallel()

	trigger := &recordingTrigger{
		kinds:     make(chan alert.TestKind, 8),
		panicOnce: true,
	}

	s, err := New(context.Background(), trigger, []Entry{
		{Expression: "* * * * * *", Kind: alert.TestKindScheduledEvening},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case kind := <-trigger.kinds:
		require.Equal(t, alert.TestKindScheduledEvening, kind)
	case <-time.After(5 * time.Second):
		t.Fatal("reminder not fired")
	}

	cancel()
	<-done
}
