package version

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
}

// TestNamed verifies the process label carries the version.
func TestNamed(t *testing.T) {
	t.Parallel()

	require.Equal(t, "alert-monitor/"+Short(), Named("alert-monitor"))
}

// TestAttachCobraVersionCommand verifies the version subcommand output.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "alert-button"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "alert-button/"+Short())
	require.Contains(t, out.String(), Commit)
}
