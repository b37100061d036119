package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestFromContext_FallsBackToGlobal verifies an empty context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithNameAndKV ensures named loggers and fields propagate through the context.
func TestWithNameAndKV(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "phase")
	ctx = WithKV(ctx, "status", "ACTIVE")

	InfoKV(ctx, "Phase entered", "phase", "SIREN")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "phase", entries[0].LoggerName)
	require.Equal(t, "Phase entered", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "ACTIVE", fields["status"])
	require.Equal(t, "SIREN", fields["phase"])
}
