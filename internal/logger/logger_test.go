package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"WARNING": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got, s)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestSetup applies a known level and rejects an unknown one.
//
//nolint:paralleltest // Mutates the global level.
func TestSetup(t *testing.T) {
	previous := Level()
	defer SetLevel(previous)

	require.NoError(t, Setup("debug"))
	require.Equal(t, zapcore.DebugLevel, Level())

	require.Error(t, Setup("loud"))
	require.Equal(t, zapcore.DebugLevel, Level())
}
