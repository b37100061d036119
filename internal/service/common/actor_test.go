//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectActor ensures hostname and username are detected and non-empty.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	a, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, a.Hostname)
	require.NotEmpty(t, a.Username)
	require.Equal(t, a.Username, a.DisplayName())
}

// TestActor_DisplayName_Nil verifies a nil actor has an empty label.
func TestActor_DisplayName_Nil(t *testing.T) {
	t.Parallel()

	var a *Actor

	require.Empty(t, a.DisplayName())
}

// TestReporterName verifies a configured name wins over the detected user.
func TestReporterName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Budi", ReporterName("  Budi "))

	a, err := DetectActor()
	require.NoError(t, err)
	require.Equal(t, a.DisplayName(), ReporterName(""))
}
