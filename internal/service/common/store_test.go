//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/testutil"
)

// TestOpenStore_NATS verifies the nats transport opens a working store.
func TestOpenStore_NATS(t *testing.T) {
	t.Parallel()

	srv, _, _ := testutil.StartJetStream(t)

	store, closeStore, err := OpenStore(t.Context(), &config.Config{
		Transport: config.TransportNATS,
		NATSURL:   srv.ClientURL(),
		Timeout:   time.Second,
	}, "store-test")
	require.NoError(t, err)
	t.Cleanup(closeStore)

	r, err := alert.NewTest(time.Now(), alert.TestKindGeneric)
	require.NoError(t, err)

	require.NoError(t, store.Replace(t.Context(), r))

	got, err := store.Get(t.Context())
	require.NoError(t, err)
	require.True(t, r.Equal(got))
}

// TestOpenStore_GRPC verifies the grpc transport requires an address.
func TestOpenStore_GRPC(t *testing.T) {
	t.Parallel()

	_, _, err := OpenStore(t.Context(), &config.Config{Transport: config.TransportGRPC}, "store-test")
	require.ErrorIs(t, err, errAddressRequired)

	store, closeStore, err := OpenStore(t.Context(), &config.Config{
		Transport:     config.TransportGRPC,
		ServerAddress: "127.0.0.1:1",
		Timeout:       time.Second,
	}, "store-test")
	require.NoError(t, err)
	require.IsType(t, new(Client), store)

	closeStore()
}
