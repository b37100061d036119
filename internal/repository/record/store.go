package record

import (
	"context"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// Handler receives every observed record. Records are copies owned by the handler.
type Handler func(record *alert.Record)

// Disposer ends a subscription. Calling it more than once has no effect.
type Disposer func()

// Store is the shared last-write-wins alert record.
type Store interface {
	// Get returns the current record.
	Get(ctx context.Context) (*alert.Record, error)
	// Replace overwrites the record as a whole.
	Replace(ctx context.Context, record *alert.Record) error
	// Subscribe delivers the current record immediately and then every observed
	// record until the disposer is called or ctx is done.
	Subscribe(ctx context.Context, handler Handler) (Disposer, error)
}
