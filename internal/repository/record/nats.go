package record

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
)

const (
	// StreamName is the JetStream stream holding the record.
	StreamName = "ALERTS"
	// Subject is the well-known record path.
	Subject = "alert.record"
)

// NATSStore keeps the record in a JetStream stream that retains a single message per subject.
type NATSStore struct {
	// js is the JetStream context used for every operation.
	js nats.JetStreamContext
}

// NewNATSStore creates the store and ensures the stream exists.
func NewNATSStore(js nats.JetStreamContext) (*NATSStore, error) {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return &NATSStore{js: js}, nil
	}

	if !errors.Is(err, nats.ErrStreamNotFound) {
		return nil, fmt.Errorf("get stream info: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:              StreamName,
		Subjects:          []string{Subject},
		Retention:         nats.LimitsPolicy,
		MaxMsgsPerSubject: 1,
		Discard:           nats.DiscardOld,
		Storage:           nats.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NATSStore{js: js}, nil
}

// Get returns the last published record, INACTIVE when nothing has been published yet.
func (s *NATSStore) Get(ctx context.Context) (*alert.Record, error) {
	msg, err := s.js.GetLastMsg(StreamName, Subject, nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrMsgNotFound) {
			return alert.Inactive(), nil
		}

		return nil, fmt.Errorf("get last record: %w", err)
	}

	return decode(ctx, msg.Data), nil
}

// Replace publishes the record, superseding the previous one.
func (s *NATSStore) Replace(ctx context.Context, record *alert.Record) error {
	data, err := alert.Marshal(record)
	if err != nil {
		return err
	}

	if _, err = s.js.Publish(Subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}

	return nil
}

// Subscribe follows the subject with an ordered consumer starting at the last message.
// An empty stream is reported as INACTIVE before any later record.
func (s *NATSStore) Subscribe(ctx context.Context, handler Handler) (Disposer, error) {
	deliver := nats.DeliverLast()

	_, err := s.js.GetLastMsg(StreamName, Subject, nats.Context(ctx))

	switch {
	case errors.Is(err, nats.ErrMsgNotFound):
		handler(alert.Inactive())

		deliver = nats.DeliverAll()
	case err != nil:
		return nil, fmt.Errorf("get last record: %w", err)
	}

	sub, err := s.js.Subscribe(Subject, func(msg *nats.Msg) {
		handler(decode(ctx, msg.Data))
	}, nats.OrderedConsumer(), deliver)
	if err != nil {
		return nil, fmt.Errorf("subscribe to records: %w", err)
	}

	var (
		once = sync.Once{}
		done = make(chan struct{})
	)

	dispose := func() {
		once.Do(func() {
			close(done)

			if unsubscribeErr := sub.Unsubscribe(); unsubscribeErr != nil {
				logger.WarnKV(ctx, "Failed to unsubscribe from records", "error", unsubscribeErr)
			}
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			dispose()
		case <-done:
		}
	}()

	return dispose, nil
}

// decode turns a payload into a record. Invalid payloads become INACTIVE.
func decode(ctx context.Context, data []byte) *alert.Record {
	record, err := alert.Decode(data)
	if err != nil {
		logger.WarnKV(ctx, "Rejected invalid record", "error", err)
	}

	return record
}
