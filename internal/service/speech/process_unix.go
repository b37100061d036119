//go:build linux || darwin || freebsd || netbsd || openbsd

package speech

import (
	"fmt"
	"os"
	"strings"
	"syscall"
)

// processStopped reports whether the process is in the stopped state.
// Only Linux exposes it through /proc; other systems report false.
func processStopped(pid int) bool {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}

	// The state follows the parenthesized command name.
	_, rest, ok := strings.Cut(string(stat), ") ")
	if !ok || rest == "" {
		return false
	}

	return rest[0] == 'T' || rest[0] == 't'
}

// continueProcess sends SIGCONT to the process.
func continueProcess(process *os.Process) error {
	if err := process.Signal(syscall.SIGCONT); err != nil {
		return fmt.Errorf("resume speech: %w", err)
	}

	return nil
}
