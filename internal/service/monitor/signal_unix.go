//go:build !windows

package monitor

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oshokin/alert-broadcast/internal/logger"
)

// watchForeground calls foreground on every SIGUSR1 until ctx is done.
func watchForeground(ctx context.Context, foreground func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1)

	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			logger.Debug(ctx, "Foreground regained")
			foreground()
		}
	}
}
