package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/service/monitor"
	"github.com/oshokin/alert-broadcast/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// feedAddress overrides the phase feed listen address.
	feedAddress string
	// historyFile overrides the history database path.
	historyFile string

	// rootCmd represents the base command for running the client monitor.
	rootCmd = &cobra.Command{
		Use:   "alert-monitor",
		Short: "Follow the alert store and sound the alert cycle on this device.",
		Long: `Subscribes to the alert store and turns every record into the local audible cycle:
a siren and spoken narration for emergencies, chimes and scripted narration for tests
and announcements. Emergencies are resolved automatically after auto_resolve.max_duration.

Only one monitor runs per host. Send SIGUSR1 when the device regains the foreground
to re-acquire the stay-awake lock. Phase events are served on /ws when a feed address
is configured.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return monitor.Run(ctx, &monitor.Options{
				ConfigPath:  configPath,
				FeedAddress: feedAddress,
				HistoryFile: historyFile,
			})
		},
	}
)

// Execute runs the alert-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&feedAddress, "feed-addr", "f", "", "phase feed listen address (overrides config)")
	rootCmd.Flags().StringVar(&historyFile, "history-file", "", "alert history database (overrides config)")
}
