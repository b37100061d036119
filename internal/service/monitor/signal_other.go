//go:build windows

package monitor

import "context"

// watchForeground has no foreground signal to watch on this platform.
func watchForeground(ctx context.Context, _ func()) {
	<-ctx.Done()
}
