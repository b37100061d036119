package power

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// ErrUnsupportedOS indicates the current OS offers no inhibitor.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Lease is a held inhibitor. The platform may revoke it at any time.
type Lease struct {
	// cmd is the process holding the inhibitor.
	cmd *exec.Cmd
	// done is closed once the process exits.
	done chan struct{}
	// once guards Release.
	once sync.Once
}

// Inhibit keeps the machine and its display awake using common, built-in tools:
// - Linux: `systemd-inhibit --what=idle:sleep ... sleep infinity`
// - macOS: `caffeinate -di`
// The inhibitor lives as long as its process does.
func Inhibit(ctx context.Context, who, why string) (*Lease, error) {
	name, args, err := inhibitCommand(runtime.GOOS, who, why)
	if err != nil {
		return nil, err
	}

	return hold(ctx, name, args...)
}

// inhibitCommand returns the inhibitor command line of the operating system.
func inhibitCommand(goos, who, why string) (string, []string, error) {
	osName := strings.ToLower(goos)

	switch {
	case strings.Contains(osName, "linux"):
		return "systemd-inhibit", []string{
			"--what=idle:sleep",
			"--who=" + who,
			"--why=" + why,
			"--mode=block",
			"sleep", "infinity",
		}, nil
	case strings.Contains(osName, "darwin"):
		return "caffeinate", []string{"-di"}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operating system: %s: %w", goos, ErrUnsupportedOS)
	}
}

// hold starts the inhibitor process and watches it.
func hold(ctx context.Context, name string, args ...string) (*Lease, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	lease := &Lease{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		//nolint:errcheck // Exit status of a killed inhibitor carries no information.
		cmd.Wait()
		close(lease.done)
	}()

	return lease, nil
}

// Done is closed when the inhibitor is released or revoked.
func (l *Lease) Done() <-chan struct{} {
	return l.done
}

// Revoked reports whether the inhibitor is gone.
func (l *Lease) Revoked() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Release ends the inhibitor and waits for its process to exit.
func (l *Lease) Release() {
	l.once.Do(func() {
		if l.cmd.Process != nil {
			//nolint:errcheck // The process may already be gone.
			l.cmd.Process.Kill()
		}

		<-l.done
	})
}
