package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"

	api "github.com/oshokin/alert-broadcast/internal/api/grpc/alert"
	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
	"github.com/oshokin/alert-broadcast/internal/service/common"
	"github.com/oshokin/alert-broadcast/internal/service/producer"
	"github.com/oshokin/alert-broadcast/internal/service/schedule"
	"github.com/oshokin/alert-broadcast/internal/version"
)

// Options controls the alert-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile specifies the path to persist the alert record JSON.
	StateFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the gRPC server and blocks until context is canceled or server stops.
// Loads configuration first, then determines listen address from config or override.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alert-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Setup(settings.LogLevel); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	// Use StateFile from config unless overridden by command line option.
	stateFile := settings.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	mirror, closeMirror, err := openMirror(ctx, settings)
	if err != nil {
		return err
	}

	defer closeMirror()

	// Create the store service restoring the persisted record.
	svc, err := newService(ctx, record.NewFileRepository(stateFile), mirror)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	reminders, err := newReminders(ctx, settings, svc)
	if err != nil {
		return err
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterAlertStoreServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Alert server listening",
		"listen_address", listenAddress,
		"state_file", stateFile,
		"version", version.Short())

	var wg sync.WaitGroup

	if reminders != nil {
		wg.Go(func() {
			reminders.Run(ctx)
		})
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	wg.Wait()
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// openMirror connects the optional NATS mirror.
func openMirror(ctx context.Context, settings *config.Config) (record.Store, func(), error) {
	if settings.NATSURL == "" {
		return nil, func() {}, nil
	}

	nc, js, err := common.ConnectNATS(ctx, settings.NATSURL, version.Named("alert-server"), settings.Timeout)
	if err != nil {
		return nil, nil, err
	}

	store, err := record.NewNATSStore(js)
	if err != nil {
		nc.Close()

		return nil, nil, fmt.Errorf("open nats mirror: %w", err)
	}

	return store, nc.Close, nil
}

// newReminders creates the reminder schedule, nil when no expression is configured.
func newReminders(ctx context.Context, settings *config.Config, store record.Store) (*schedule.Scheduler, error) {
	entries := schedule.Entries(settings.Schedule.Morning, settings.Schedule.Evening)
	if len(entries) == 0 {
		return nil, nil //nolint:nilnil // No schedule is a valid configuration.
	}

	reminders, err := schedule.New(ctx, producer.New(store), entries)
	if err != nil {
		return nil, fmt.Errorf("create reminder schedule: %w", err)
	}

	return reminders, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
