package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/history"
	"github.com/oshokin/alert-broadcast/internal/service/audio"
	"github.com/oshokin/alert-broadcast/internal/service/common"
	"github.com/oshokin/alert-broadcast/internal/service/keepalive"
	"github.com/oshokin/alert-broadcast/internal/service/notify"
	"github.com/oshokin/alert-broadcast/internal/service/phase"
	"github.com/oshokin/alert-broadcast/internal/service/producer"
	"github.com/oshokin/alert-broadcast/internal/service/resolve"
	"github.com/oshokin/alert-broadcast/internal/service/speech"
	"github.com/oshokin/alert-broadcast/internal/version"
)

// processName identifies the monitor on the host and towards the store.
const processName = "alert-monitor"

// readHeaderTimeout bounds feed request headers.
const readHeaderTimeout = 5 * time.Second

// Options controls the alert-monitor process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// FeedAddress overrides the configured phase feed address.
	FeedAddress string
	// HistoryFile overrides the configured history database.
	HistoryFile string
}

// Run follows the alert store and drives the local alert cycle until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, processName)

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Setup(settings.LogLevel); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	if err = ensureSingleInstance(ctx); err != nil {
		return err
	}

	store, closeStore, err := common.OpenStore(ctx, settings, processName)
	if err != nil {
		return fmt.Errorf("open alert store: %w", err)
	}

	defer closeStore()

	deps, err := newPhaseDependencies(settings)
	if err != nil {
		return err
	}

	resolver := producer.New(store)
	deps.Resolver = resolver

	hist, closeHistory, err := openHistory(ctx, settings.HistoryFile, opts.HistoryFile)
	if err != nil {
		return err
	}

	defer closeHistory()

	var scheduler *phase.Scheduler

	feed := NewFeed(func(ctx context.Context) (phase.Event, bool) {
		return scheduler.Current(ctx)
	}, hist)

	scheduler = phase.New(deps, phase.SettingsFromConfig(settings.Alarm), feed.Publish, logPhase(ctx))

	timer := resolve.NewTimer(resolver, settings.AutoResolve.MaxDuration, settings.AutoResolve.Enabled)
	defer timer.Stop()

	mon := New(Dependencies{
		Scheduler: scheduler,
		Timer:     timer,
		History:   hist,
		Notifier:  newNotifier(ctx, settings),
		Self:      common.ReporterName(settings.Reporter.Name),
	})

	var wg sync.WaitGroup

	feedAddress := settings.FeedAddress
	if opts.FeedAddress != "" {
		feedAddress = opts.FeedAddress
	}

	if feedAddress != "" {
		if err = serveFeed(ctx, &wg, feedAddress, feed.Router()); err != nil {
			return err
		}
	}

	wg.Go(func() {
		scheduler.Run(ctx)
	})

	wg.Go(func() {
		watchForeground(ctx, scheduler.Foreground)
	})

	dispose, err := store.Subscribe(ctx, func(r *alert.Record) {
		mon.Handle(ctx, r)
	})
	if err != nil {
		return fmt.Errorf("subscribe to alert store: %w", err)
	}

	logger.InfoKV(ctx, "Alert monitor started",
		"transport", settings.Transport,
		"feed_address", feedAddress,
		"version", version.Short())

	<-ctx.Done()

	dispose()
	wg.Wait()
	mon.Wait()

	logger.Info(ctx, "Alert monitor stopped")

	return nil
}

// ensureSingleInstance refuses to run a second monitor on the host.
func ensureSingleInstance(ctx context.Context) error {
	executable, err := common.CurrentExecutable()
	if err != nil {
		logger.WarnKV(ctx, "Skipping single instance check", "error", err)

		return nil
	}

	return common.EnsureSingleInstance(executable)
}

// newPhaseDependencies builds the audio collaborators of the phase scheduler.
func newPhaseDependencies(settings *config.Config) (phase.Dependencies, error) {
	sink, err := audio.NewCommandSink(settings.Audio.Player)
	if err != nil {
		return phase.Dependencies{}, fmt.Errorf("create audio sink: %w", err)
	}

	engine, err := speech.NewCommandEngine(settings.Audio.Speech)
	if err != nil {
		return phase.Dependencies{}, fmt.Errorf("create speech engine: %w", err)
	}

	var locker keepalive.Locker
	if settings.Audio.Inhibit {
		locker = keepalive.InhibitLocker{
			Who: processName,
			Why: "Alert cycle in progress",
		}
	}

	return phase.Dependencies{
		Tone:     audio.NewSiren(sink),
		Chime:    audio.NewChime(sink),
		Narrator: speech.NewNarrator(engine),
		Guard:    keepalive.NewGuard(locker, audio.NewSilentLoop(sink)),
	}, nil
}

// openHistory opens the optional history database. The override wins over the configured path.
func openHistory(ctx context.Context, configured, override string) (history.Repository, func(), error) {
	path := configured
	if override != "" {
		path = override
	}

	if path == "" {
		return nil, func() {}, nil
	}

	repo, err := history.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	return repo, func() {
		if err := repo.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close history", "error", err)
		}
	}, nil
}

// newNotifier creates the optional notifier. Misconfiguration only disables notifications.
func newNotifier(ctx context.Context, settings *config.Config) notify.Notifier {
	if settings.Notify.AppriseURL == "" {
		return nil
	}

	notifier, err := notify.NewApprise(settings.Notify.AppriseURL, settings.Notify.Tags, settings.Timeout)
	if err != nil {
		logger.WarnKV(ctx, "Notifications disabled", "error", err)

		return nil
	}

	return notifier
}

// logPhase logs phase transitions.
func logPhase(ctx context.Context) phase.Observer {
	return func(event phase.Event) {
		logger.DebugKV(ctx, "Phase entered",
			"phase", event.Phase,
			"status", event.Status,
			"repeat", event.Repeat,
			"closing", event.Closing)
	}
}

// serveFeed starts the feed HTTP server and stops it with ctx.
func serveFeed(ctx context.Context, wg *sync.WaitGroup, address string, handler http.Handler) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	wg.Go(func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Phase feed stopped", "error", err)
		}
	})

	wg.Go(func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readHeaderTimeout)
		defer cancel()

		//nolint:contextcheck // Shutdown outlives the canceled parent.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "Phase feed shutdown failed", "error", err)
		}
	})

	return nil
}
