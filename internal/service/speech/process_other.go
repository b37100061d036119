//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package speech

import "os"

// processStopped is not observable on this platform.
func processStopped(int) bool {
	return false
}

// continueProcess does nothing on this platform.
func continueProcess(*os.Process) error {
	return nil
}
