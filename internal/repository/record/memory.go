package record

import (
	"context"
	"sync"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// Hub is an in-memory Store with push fanout.
// Each subscriber has a single pending slot: a slow subscriber skips intermediate
// records and always ends up with the latest one.
type Hub struct {
	// current is the last written record.
	current *alert.Record
	// subscribers are keyed by subscription id.
	subscribers map[uint64]*subscriber
	// nextID is the id given to the next subscription.
	nextID uint64
	// mu protects all fields above.
	mu sync.Mutex
}

// subscriber is a single Hub subscription.
type subscriber struct {
	// handler receives records on the subscriber goroutine.
	handler Handler
	// pending holds the latest undelivered record.
	pending chan *alert.Record
	// done is closed by the disposer.
	done chan struct{}
}

// NewMemoryStore creates a hub holding the initial record, INACTIVE when nil.
func NewMemoryStore(initial *alert.Record) *Hub {
	if initial == nil {
		initial = alert.Inactive()
	}

	return &Hub{
		current:     initial.Clone(),
		subscribers: make(map[uint64]*subscriber),
	}
}

// Get returns a copy of the current record.
func (h *Hub) Get(context.Context) (*alert.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.current.Clone(), nil
}

// Replace stores the record and pushes it to every subscriber.
func (h *Hub) Replace(_ context.Context, record *alert.Record) error {
	if record == nil {
		record = alert.Inactive()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = record.Clone()

	for _, s := range h.subscribers {
		s.offer(h.current)
	}

	return nil
}

// Subscribe registers the handler and delivers the current record right away.
func (h *Hub) Subscribe(ctx context.Context, handler Handler) (Disposer, error) {
	s := &subscriber{
		handler: handler,
		pending: make(chan *alert.Record, 1),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = s
	s.offer(h.current)
	h.mu.Unlock()

	var once sync.Once

	dispose := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()

			close(s.done)
		})
	}

	go s.run(ctx, dispose)

	return dispose, nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// offer replaces any undelivered record with the given one. Callers hold the hub lock.
func (s *subscriber) offer(record *alert.Record) {
	select {
	case <-s.pending:
	default:
	}

	s.pending <- record.Clone()
}

// run delivers pending records until disposed or ctx is done.
func (s *subscriber) run(ctx context.Context, dispose Disposer) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			dispose()
			return
		case record := <-s.pending:
			s.handler(record)
		}
	}
}
