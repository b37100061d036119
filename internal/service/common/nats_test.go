//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/testutil"
)

// TestConnectNATS verifies the helper connects and opens JetStream.
func TestConnectNATS(t *testing.T) {
	t.Parallel()

	s, _, _ := testutil.StartJetStream(t)

	nc, js, err := ConnectNATS(context.Background(), s.ClientURL(), "test", time.Second)
	require.NoError(t, err)

	defer nc.Close()

	_, err = js.AccountInfo()
	require.NoError(t, err)
}

// TestConnectNATS_ValidatesURL verifies an empty URL is rejected.
func TestConnectNATS_ValidatesURL(t *testing.T) {
	t.Parallel()

	_, _, err := ConnectNATS(context.Background(), "", "test", time.Second)
	require.Error(t, err)
}
