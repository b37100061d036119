package keepalive

import (
	"context"
	"sync"

	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/service/power"
)

// Lock is a held stay-awake lock.
type Lock interface {
	// Release gives the lock back.
	Release()
	// Revoked reports whether the platform took the lock away.
	Revoked() bool
}

// Locker acquires stay-awake locks.
type Locker interface {
	Acquire(ctx context.Context) (Lock, error)
}

// Loop is the inaudible fallback track.
type Loop interface {
	Start(ctx context.Context) error
	Stop()
	Playing() bool
}

// InhibitLocker acquires OS inhibitors through the power package.
type InhibitLocker struct {
	// Who names the application holding the inhibitor.
	Who string
	// Why explains the inhibitor to the user.
	Why string
}

// Acquire holds a power inhibitor.
func (l InhibitLocker) Acquire(ctx context.Context) (Lock, error) {
	lease, err := power.Inhibit(ctx, l.Who, l.Why)
	if err != nil {
		return nil, err
	}

	return lease, nil
}

// Guard holds the stay-awake lock and the silent loop while engaged.
// Missing capabilities degrade silently: failures are logged at debug level only.
type Guard struct {
	// locker acquires the lock, nil when the platform offers none.
	locker Locker
	// loop is the silent track, nil when disabled.
	loop Loop

	// mu protects the fields below.
	mu sync.Mutex
	// engaged is set between Engage and Release.
	engaged bool
	// lock is the held lock, nil when not held.
	lock Lock
}

// NewGuard creates a guard. Both collaborators are optional.
func NewGuard(locker Locker, loop Loop) *Guard {
	return &Guard{
		locker: locker,
		loop:   loop,
	}
}

// Engage acquires the lock and starts the silent loop. Engaging twice is a no-op.
func (g *Guard) Engage(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.engaged {
		return
	}

	g.engaged = true

	g.acquire(ctx)
	g.startLoop(ctx)
}

// Release stops both the lock and the loop.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.engaged {
		return
	}

	g.engaged = false

	if g.lock != nil {
		g.lock.Release()
		g.lock = nil
	}

	if g.loop != nil {
		g.loop.Stop()
	}
}

// Reengage restores a revoked lock or a stopped loop while engaged.
func (g *Guard) Reengage(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.engaged {
		return
	}

	if g.lock == nil || g.lock.Revoked() {
		if g.lock != nil {
			g.lock.Release()
			g.lock = nil
		}

		g.acquire(ctx)
	}

	if g.loop != nil && !g.loop.Playing() {
		g.startLoop(ctx)
	}
}

// Engaged reports whether the guard is engaged.
func (g *Guard) Engaged() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.engaged
}

// acquire takes the lock if the platform offers one. Callers hold mu.
func (g *Guard) acquire(ctx context.Context) {
	if g.locker == nil {
		return
	}

	lock, err := g.locker.Acquire(ctx)
	if err != nil {
		logger.DebugKV(ctx, "Stay-awake lock unavailable", "error", err)

		return
	}

	g.lock = lock
}

// startLoop starts the silent loop. Callers hold mu.
func (g *Guard) startLoop(ctx context.Context) {
	if g.loop == nil {
		return
	}

	if err := g.loop.Start(ctx); err != nil {
		logger.DebugKV(ctx, "Silent loop unavailable", "error", err)
	}
}
