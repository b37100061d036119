package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
)

// service encapsulates the record persistence and broadcast orchestration.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// repo handles persistent storage of the record.
	repo record.Repository
	// hub holds the current record and pushes it to subscribers.
	hub *record.Hub
	// mirror receives every accepted record, nil disables mirroring.
	mirror record.Store
	// mu serializes replacements so persistence and broadcast keep the same order.
	mu sync.Mutex
}

// newService creates a service backed by the provided repository.
// A missing state file starts the store INACTIVE.
func newService(ctx context.Context, repository record.Repository, mirror record.Store) (*service, error) {
	initial := alert.Inactive()

	if repository != nil {
		stored, err := repository.Load(ctx)

		switch {
		case err == nil:
			initial = stored
		case errors.Is(err, record.ErrNotFound):
			// Keep INACTIVE.
		default:
			return nil, fmt.Errorf("load record: %w", err)
		}
	}

	logger.InfoKV(ctx, "Alert record restored", "status", initial.Status, "reporter", initial.ReporterName)

	return &service{
		repo:   repository,
		hub:    record.NewMemoryStore(initial),
		mirror: mirror,
	}, nil
}

// Get returns the current record.
func (s *service) Get(ctx context.Context) (*alert.Record, error) {
	logger.Debug(ctx, "Alert record requested")

	return s.hub.Get(ctx)
}

// Replace persists the record, then broadcasts it.
func (s *service) Replace(ctx context.Context, next *alert.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(ctx, next); err != nil {
			logger.Errorf(ctx, "Failed to persist alert record: %v", err)

			return fmt.Errorf("persist record: %w", err)
		}
	}

	if err := s.hub.Replace(ctx, next); err != nil {
		return fmt.Errorf("broadcast record: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Replace(ctx, next); err != nil {
			logger.WarnKV(ctx, "Failed to mirror alert record", "error", err)
		}
	}

	logger.InfoKV(ctx, "Alert record replaced",
		"status", next.Status,
		"test_kind", next.TestKind,
		"reporter", next.ReporterName,
		"subscribers", s.hub.Subscribers(),
	)

	return nil
}

// Subscribe registers a subscriber on the hub.
func (s *service) Subscribe(ctx context.Context, handler record.Handler) (record.Disposer, error) {
	return s.hub.Subscribe(ctx, handler)
}
