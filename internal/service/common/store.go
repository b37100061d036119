//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
	"github.com/oshokin/alert-broadcast/internal/version"
)

// OpenStore connects the remote alert store selected by the configuration.
// The returned function releases the connection.
func OpenStore(ctx context.Context, settings *config.Config, name string) (record.Store, func(), error) {
	switch settings.Transport {
	case config.TransportNATS:
		nc, js, err := ConnectNATS(ctx, settings.NATSURL, version.Named(name), settings.Timeout)
		if err != nil {
			return nil, nil, err
		}

		store, err := record.NewNATSStore(js)
		if err != nil {
			nc.Close()

			return nil, nil, fmt.Errorf("open nats store: %w", err)
		}

		return store, nc.Close, nil
	default:
		client, err := Dial(ctx, settings.ServerAddress, WithCallTimeout(settings.Timeout))
		if err != nil {
			return nil, nil, err
		}

		return client, func() {
			//nolint:errcheck // Nothing to do with a close error on shutdown.
			client.Close()
		}, nil
	}
}
