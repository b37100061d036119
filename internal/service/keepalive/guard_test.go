package keepalive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// errDenied simulates a denied capability.
var errDenied = errors.New("permission denied")

// fakeLock is a controllable lock.
type fakeLock struct {
	// released is set by Release.
	released bool
	// revoked simulates platform revocation.
	revoked bool
}

// Release marks the lock released.
func (l *fakeLock) Release() { l.released = true }

// Revoked reports the simulated revocation.
func (l *fakeLock) Revoked() bool { return l.revoked }

// fakeLocker hands out fake locks.
type fakeLocker struct {
	// locks are the handed out locks.
	locks []*fakeLock
	// err fails Acquire when set.
	err error
}

// Acquire returns a new lock.
func (l *fakeLocker) Acquire(context.Context) (Lock, error) {
	if l.err != nil {
		return nil, l.err
	}

	lock := new(fakeLock)
	l.locks = append(l.locks, lock)

	return lock, nil
}

// fakeLoop is a controllable silent loop.
type fakeLoop struct {
	// playing is the simulated state.
	playing bool
	// starts counts Start calls.
	starts int
	// err fails Start when set.
	err error
}

// Start marks the loop playing.
func (l *fakeLoop) Start(context.Context) error {
	l.starts++

	if l.err != nil {
		return l.err
	}

	l.playing = true

	return nil
}

// Stop marks the loop stopped.
func (l *fakeLoop) Stop() { l.playing = false }

// Playing reports the simulated state.
func (l *fakeLoop) Playing() bool { return l.playing }

// TestGuard_EngageRelease verifies both capabilities follow the guard state.
func TestGuard_EngageRelease(t *testing.T) {
	t.Parallel()

	var (
		locker = new(fakeLocker)
		loop   = new(fakeLoop)
		guard  = NewGuard(locker, loop)
	)

	guard.Engage(context.Background())
	guard.Engage(context.Background())

	require.True(t, guard.Engaged())
	require.Len(t, locker.locks, 1)
	require.Equal(t, 1, loop.starts)
	require.True(t, loop.playing)

	guard.Release()
	guard.Release()

	require.False(t, guard.Engaged())
	require.True(t, locker.locks[0].released)
	require.False(t, loop.playing)
}

// TestGuard_Reengage verifies a revoked lock and a stopped loop are restored silently.
func TestGuard_Reengage(t *testing.T) {
	t.Parallel()

	var (
		locker = new(fakeLocker)
		loop   = new(fakeLoop)
		guard  = NewGuard(locker, loop)
	)

	// Not engaged: nothing happens.
	guard.Reengage(context.Background())
	require.Empty(t, locker.locks)

	guard.Engage(context.Background())

	// Healthy: nothing is restarted.
	guard.Reengage(context.Background())
	require.Len(t, locker.locks, 1)
	require.Equal(t, 1, loop.starts)

	locker.locks[0].revoked = true
	loop.playing = false

	guard.Reengage(context.Background())
	require.Len(t, locker.locks, 2)
	require.True(t, locker.locks[0].released)
	require.Equal(t, 2, loop.starts)
	require.True(t, loop.playing)
}

// TestGuard_DeniedCapabilities verifies failures never surface and are retried on re-engagement.
func TestGuard_DeniedCapabilities(t *testing.T) {
	t.Parallel()

	var (
		locker = &fakeLocker{err: errDenied}
		loop   = &fakeLoop{err: errDenied}
		guard  = NewGuard(locker, loop)
	)

	guard.Engage(context.Background())
	require.True(t, guard.Engaged())

	locker.err = nil
	loop.err = nil

	guard.Reengage(context.Background())
	require.Len(t, locker.locks, 1)
	require.True(t, loop.playing)

	// No collaborators at all.
	bare := NewGuard(nil, nil)
	bare.Engage(context.Background())
	bare.Reengage(context.Background())
	bare.Release()
}
