//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process runs the same executable.
var ErrAlreadyRunning = errors.New("another instance is already running")

// EnsureSingleInstance fails when a process other than the current one runs the executable.
func EnsureSingleInstance(executable string) error {
	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Pid() == os.Getppid() {
			continue
		}

		if process.Executable() == executable {
			return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, executable, process.Pid())
		}
	}

	return nil
}

// CurrentExecutable returns the base name of the running binary as the process table reports it.
func CurrentExecutable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("current executable: %w", err)
	}

	name := filepath.Base(path)

	// Linux truncates process names to 15 bytes.
	if runtime.GOOS == "linux" && len(name) > linuxCommLength {
		name = name[:linuxCommLength]
	}

	return name, nil
}

// linuxCommLength is the maximum length of /proc/<pid>/stat process names.
const linuxCommLength = 15
