package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/service/client"
	"github.com/oshokin/alert-broadcast/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the configured gRPC server address.
	serverAddress string
	// name overrides the configured reporter name.
	name string
	// area overrides the configured reporter area.
	area string
	// incidentType is the emergency category.
	incidentType string
	// note is the emergency description.
	note string
	// by names who resolves the alert.
	by string

	// rootCmd represents the base command writing alert records.
	rootCmd = &cobra.Command{
		Use:   "alert-button",
		Short: "Raise, test, announce and resolve alerts.",
		Long: `Writes the shared alert record read by every alert-monitor.

Each subcommand replaces the whole record once. A failed write is reported and
not retried.`,
	}

	// panicCmd raises an emergency.
	panicCmd = &cobra.Command{
		Use:   "panic",
		Short: "Raise an emergency for this resident.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &client.Options{
				Action:       client.ActionPanic,
				Name:         name,
				Area:         area,
				IncidentType: incidentType,
				Note:         note,
			})
		},
	}

	// testCmd starts a scripted test.
	testCmd = &cobra.Command{
		Use:   "test [GENERAL|MORNING_ALERT|NIGHT_PATROL]",
		Short: "Start a scripted test, GENERAL by default.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind string
			if len(args) > 0 {
				kind = args[0]
			}

			return run(cmd, &client.Options{
				Action:   client.ActionTest,
				TestKind: kind,
			})
		},
	}

	// announceCmd speaks a free-text announcement.
	announceCmd = &cobra.Command{
		Use:   "announce <text>",
		Short: "Speak an announcement on every device.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &client.Options{
				Action: client.ActionAnnounce,
				Text:   strings.Join(args, " "),
			})
		},
	}

	// resolveCmd clears any alert.
	resolveCmd = &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the current alert.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &client.Options{
				Action: client.ActionResolve,
				By:     by,
			})
		},
	}

	// statusCmd prints the current record.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the current alert record.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &client.Options{
				Action: client.ActionStatus,
			})
		},
	}
)

// run executes the action with graceful shutdown handling.
func run(cmd *cobra.Command, opts *client.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	opts.ConfigPath = cfgPath
	opts.ServerAddress = serverAddress
	opts.Out = cmd.OutOrStdout()

	return client.Run(ctx, opts)
}

// Execute runs the alert-button CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "gRPC server address (overrides config)")

	panicCmd.Flags().StringVarP(&name, "name", "n", "", "reporter name (overrides config)")
	panicCmd.Flags().StringVarP(&area, "area", "a", "", "reporter area, e.g. \"RT 03\" (overrides config)")
	panicCmd.Flags().StringVarP(&incidentType, "type", "t", "", "emergency category")
	panicCmd.Flags().StringVar(&note, "note", "", "emergency description")

	resolveCmd.Flags().StringVarP(&by, "by", "b", "", "who resolves the alert, defaults to the reporter")

	rootCmd.AddCommand(panicCmd, testCmd, announceCmd, resolveCmd, statusCmd)
}
