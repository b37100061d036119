package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/service/server"
	"github.com/oshokin/alert-broadcast/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where the alert record is persisted.
	stateFile string

	// rootCmd represents the base command for running the alert store server.
	rootCmd = &cobra.Command{
		Use:   "alert-server [listen-address]",
		Short: "Run the alert store gRPC server.",
		Long: `Starts the gRPC server holding the single shared alert record.

Writers replace the whole record and every subscriber receives the latest record
immediately and on each change. Only the port from ServerAddress config is used for
listening (e.g., :8080); a listen address argument overrides it (e.g., :9090).
The record is persisted to a JSON file and, when nats_url is set, mirrored to the
NATS JetStream stream read by nats monitors. Scheduled morning and evening
reminders are written by the server when configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
			})
		},
	}
)

// Execute runs the alert-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to persist the alert record (overrides config)")
}
