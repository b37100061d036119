//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oshokin/alert-broadcast/internal/logger"
)

const (
	// natsReconnectWait is the pause between NATS reconnect attempts.
	natsReconnectWait = 2 * time.Second
	// natsPingInterval is the NATS keep-alive period.
	natsPingInterval = 20 * time.Second
	// natsMaxPingsOutstanding is how many pings may go unanswered before reconnecting.
	natsMaxPingsOutstanding = 5
)

// errNATSURLRequired is returned when the NATS URL is missing.
var errNATSURLRequired = errors.New("nats url must be provided")

// ConnectNATS connects to NATS and opens a JetStream context.
// The connection reconnects forever; state changes are logged.
func ConnectNATS(
	ctx context.Context,
	url, name string,
	timeout time.Duration,
) (*nats.Conn, nats.JetStreamContext, error) {
	if url == "" {
		return nil, nil, errNATSURLRequired
	}

	ctx = logger.WithName(ctx, "nats")

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.Timeout(timeout),
		nats.PingInterval(natsPingInterval),
		nats.MaxPingsOutstanding(natsMaxPingsOutstanding),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}

			logger.ErrorKV(ctx, "NATS connection error", "subject", subject, "error", err)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.WarnKV(ctx, "NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.InfoKV(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream(nats.MaxWait(timeout))
	if err != nil {
		nc.Close()

		return nil, nil, fmt.Errorf("open jetstream: %w", err)
	}

	logger.InfoKV(ctx, "Connected to NATS", "url", nc.ConnectedUrl())

	return nc, js, nil
}
