package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/service/common"
	"github.com/oshokin/alert-broadcast/internal/service/producer"
)

// Action is a producer operation of the alert-button command.
type Action string

const (
	// ActionPanic raises an emergency.
	ActionPanic Action = "panic"
	// ActionTest starts a scripted test.
	ActionTest Action = "test"
	// ActionAnnounce speaks a free-text announcement.
	ActionAnnounce Action = "announce"
	// ActionResolve clears any alert.
	ActionResolve Action = "resolve"
	// ActionStatus prints the current record.
	ActionStatus Action = "status"
)

// ErrUnknownAction is returned for an unsupported action.
var ErrUnknownAction = errors.New("unknown action")

// Options configures a single alert-button invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the gRPC server address from config when specified.
	ServerAddress string
	// Action selects the operation.
	Action Action
	// Name overrides the configured reporter name of an emergency.
	Name string
	// Area overrides the configured reporter area of an emergency.
	Area string
	// IncidentType is the optional emergency category.
	IncidentType string
	// Note is the optional emergency description.
	Note string
	// TestKind selects the scripted test.
	TestKind string
	// Text is the announcement text.
	Text string
	// By names who resolves the alert, defaults to the reporter name.
	By string
	// Out receives the resulting record, defaults to stdout.
	Out io.Writer
}

// Run performs the action and prints the resulting record.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alert-button")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Setup(settings.LogLevel); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	if opts.ServerAddress != "" {
		settings.ServerAddress = opts.ServerAddress
	}

	store, closeStore, err := common.OpenStore(ctx, settings, "alert-button")
	if err != nil {
		return fmt.Errorf("open alert store: %w", err)
	}

	defer closeStore()

	p := producer.New(store, producer.WithLocator(producer.StaticLocator{
		Location: configuredLocation(settings.Reporter),
	}))

	r, err := perform(ctx, p, settings, opts)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	_, err = fmt.Fprintln(out, FormatRecord(r))

	return err
}

// perform runs the selected producer action.
func perform(ctx context.Context, p *producer.Producer, settings *config.Config, opts *Options) (*alert.Record, error) {
	reporter := common.ReporterName(firstNonEmpty(opts.Name, settings.Reporter.Name))

	logger.InfoKV(ctx, "Writing alert record", "action", opts.Action, "reporter", reporter)

	switch opts.Action {
	case ActionPanic:
		return p.Trigger(ctx, producer.EmergencyRequest{
			Name:         reporter,
			Area:         firstNonEmpty(opts.Area, settings.Reporter.Area),
			IncidentType: opts.IncidentType,
			Note:         opts.Note,
		})
	case ActionTest:
		kind, err := alert.ParseTestKind(opts.TestKind)
		if err != nil {
			return nil, err
		}

		return p.TriggerTest(ctx, kind)
	case ActionAnnounce:
		return p.TriggerAnnouncement(ctx, opts.Text)
	case ActionResolve:
		return p.Resolve(ctx, firstNonEmpty(opts.By, reporter))
	case ActionStatus:
		return p.Status(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, opts.Action)
	}
}

// configuredLocation returns the fixed device position, nil when not configured.
func configuredLocation(reporter config.Reporter) *alert.Location {
	if reporter.Latitude == 0 && reporter.Longitude == 0 {
		return nil
	}

	location := &alert.Location{
		Latitude:  reporter.Latitude,
		Longitude: reporter.Longitude,
	}

	if reporter.AccuracyMeters > 0 {
		accuracy := reporter.AccuracyMeters
		location.AccuracyMeters = &accuracy
	}

	return location
}

// FormatRecord converts a record to a readable single line.
func FormatRecord(r *alert.Record) string {
	if r == nil {
		return "<nil record>"
	}

	parts := []string{"status=" + string(r.Status)}

	if r.ReporterName != "" {
		parts = append(parts, fmt.Sprintf("reporter=%q", r.ReporterName))
	}

	if r.ReporterArea != "" {
		parts = append(parts, fmt.Sprintf("area=%q", r.ReporterArea))
	}

	if r.TestKind != alert.TestKindNone {
		parts = append(parts, "test_kind="+string(r.TestKind))
	}

	if r.AnnouncementText != "" {
		parts = append(parts, fmt.Sprintf("text=%q", r.AnnouncementText))
	}

	if r.Location != nil {
		parts = append(parts, fmt.Sprintf("location=%v,%v", r.Location.Latitude, r.Location.Longitude))
	}

	if !r.TriggeredAt.IsZero() {
		parts = append(parts, "at="+r.TriggeredAt.Format(time.RFC3339))
	}

	return strings.Join(parts, " ")
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}

	return ""
}
