package producer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
)

// DefaultLocateTimeout bounds the best-effort location read of an emergency.
const DefaultLocateTimeout = 10 * time.Second

// EmergencyRequest is the input of Trigger.
type EmergencyRequest struct {
	// Name is the reporter name.
	Name string
	// Area is the optional administrative subdivision.
	Area string
	// IncidentType is the optional emergency category.
	IncidentType string
	// Note is the optional free-text description.
	Note string
}

// Producer writes alert records to a store.
type Producer struct {
	// store receives every record.
	store record.Store
	// locator reads the reporter position, nil disables it.
	locator Locator
	// locateTimeout bounds a location read.
	locateTimeout time.Duration
	// now returns the write time.
	now func() time.Time
}

// Option configures the producer.
type Option func(*Producer)

// WithLocator attaches a position source to emergencies.
func WithLocator(locator Locator) Option {
	return func(p *Producer) {
		p.locator = locator
	}
}

// WithLocateTimeout overrides DefaultLocateTimeout.
func WithLocateTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		if timeout > 0 {
			p.locateTimeout = timeout
		}
	}
}

// WithClock overrides the write time source.
func WithClock(now func() time.Time) Option {
	return func(p *Producer) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a producer writing to the store.
func New(store record.Store, opts ...Option) *Producer {
	p := &Producer{
		store:         store,
		locateTimeout: DefaultLocateTimeout,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Trigger writes an ACTIVE record. The location is attached when it can be read in time.
func (p *Producer) Trigger(ctx context.Context, req EmergencyRequest) (*alert.Record, error) {
	next, err := alert.NewEmergency(p.now(), alert.Emergency{
		Name:         req.Name,
		Area:         req.Area,
		Location:     p.locate(ctx),
		IncidentType: req.IncidentType,
		Note:         req.Note,
	})
	if err != nil {
		return nil, fmt.Errorf("build emergency: %w", err)
	}

	return p.write(ctx, next)
}

// TriggerTest writes a TEST record of a scripted kind.
func (p *Producer) TriggerTest(ctx context.Context, kind alert.TestKind) (*alert.Record, error) {
	next, err := alert.NewTest(p.now(), kind)
	if err != nil {
		return nil, fmt.Errorf("build test: %w", err)
	}

	return p.write(ctx, next)
}

// TriggerAnnouncement writes a TEST record speaking the text verbatim.
func (p *Producer) TriggerAnnouncement(ctx context.Context, text string) (*alert.Record, error) {
	next, err := alert.NewAnnouncement(p.now(), text)
	if err != nil {
		return nil, fmt.Errorf("build announcement: %w", err)
	}

	return p.write(ctx, next)
}

// Resolve writes the INACTIVE record. The resolver is only logged.
func (p *Producer) Resolve(ctx context.Context, by string) (*alert.Record, error) {
	ctx = logger.WithKV(ctx, "resolved_by", strings.TrimSpace(by))

	return p.write(ctx, alert.NewResolved(p.now()))
}

// Status returns the current record.
func (p *Producer) Status(ctx context.Context) (*alert.Record, error) {
	current, err := p.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	return current, nil
}

// write replaces the remote record.
func (p *Producer) write(ctx context.Context, next *alert.Record) (*alert.Record, error) {
	if err := p.store.Replace(ctx, next); err != nil {
		logger.ErrorKV(ctx, "Failed to write alert record", "status", next.Status, "error", err)

		return nil, fmt.Errorf("write record: %w", err)
	}

	logger.InfoKV(ctx, "Alert record written",
		"status", next.Status,
		"test_kind", next.TestKind,
		"reporter", next.ReporterName,
	)

	return next, nil
}

// locate reads the position, giving up silently on failure or timeout.
func (p *Producer) locate(ctx context.Context) *alert.Location {
	if p.locator == nil {
		return nil
	}

	locateCtx, cancel := context.WithTimeout(ctx, p.locateTimeout)
	defer cancel()

	location, err := p.locator.Locate(locateCtx)
	if err != nil {
		logger.DebugKV(ctx, "Sending emergency without location", "error", err)

		return nil
	}

	return location
}
