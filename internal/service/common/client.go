//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	alertapi "github.com/oshokin/alert-broadcast/internal/api/grpc/alert"
	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
)

// DefaultReconnectDelay is the pause before a dropped subscription is reopened.
const DefaultReconnectDelay = 3 * time.Second

// Client wraps the gRPC AlertStore client and implements record.Store.
type Client struct {
	// conn is the underlying gRPC connection to the alert server.
	conn *grpc.ClientConn
	// api is the AlertStore client.
	api *alertapi.AlertStoreClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// reconnectDelay is the pause between subscription attempts.
	reconnectDelay time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithReconnectDelay sets the pause before a dropped subscription is reopened.
func WithReconnectDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.reconnectDelay = delay
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alert server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alert server: %w", err)
	}

	client := &Client{
		conn:           conn,
		api:            alertapi.NewAlertStoreClient(conn),
		callTimeout:    config.DefaultTimeout,
		reconnectDelay: DefaultReconnectDelay,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Get retrieves the current record. An undecodable record is reported as INACTIVE.
func (c *Client) Get(ctx context.Context) (*alert.Record, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Get(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	return fromStruct(ctx, resp), nil
}

// Replace overwrites the remote record. Failed writes are not retried.
func (c *Client) Replace(ctx context.Context, r *alert.Record) error {
	st, err := alert.ToStruct(r)
	if err != nil {
		return err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err = c.api.Replace(callCtx, st); err != nil {
		return fmt.Errorf("replace record: %w", err)
	}

	return nil
}

// Subscribe follows the remote record. A dropped stream is reopened after the
// reconnect delay until the disposer is called or ctx is done.
func (c *Client) Subscribe(ctx context.Context, handler record.Handler) (record.Disposer, error) {
	subCtx, cancel := context.WithCancel(ctx)

	var once sync.Once

	go c.follow(subCtx, handler)

	return func() {
		once.Do(cancel)
	}, nil
}

// follow keeps a subscription stream open until ctx is done.
func (c *Client) follow(ctx context.Context, handler record.Handler) {
	for {
		err := c.stream(ctx, handler)
		if ctx.Err() != nil {
			return
		}

		logger.WarnKV(ctx, "Record subscription dropped",
			"error", err,
			"retry_in", c.reconnectDelay,
		)

		timer := time.NewTimer(c.reconnectDelay)

		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
		}
	}
}

// stream reads a single subscription stream until it fails.
func (c *Client) stream(ctx context.Context, handler record.Handler) error {
	stream, err := c.api.Subscribe(ctx, new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("open subscription: %w", err)
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("receive record: %w", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		handler(fromStruct(ctx, msg))
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// fromStruct decodes a received record, collapsing invalid ones to INACTIVE.
func fromStruct(ctx context.Context, st *structpb.Struct) *alert.Record {
	r, err := alert.FromStruct(st)
	if err != nil {
		logger.WarnKV(ctx, "Rejected invalid record", "error", err)
	}

	return r
}
