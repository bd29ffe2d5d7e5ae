//go:build unit

package zap

import (
	"context"
	"testing"

	logpkg "github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsMissingOTelLibraryName(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Environment: EnvironmentProduction})
	assert.ErrorIs(t, err, ErrMissingLibraryName)
}

func TestNewRejectsInvalidEnvironment(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Environment: Environment("banana"), OTelLibraryName: "svc"})
	assert.ErrorIs(t, err, ErrInvalidEnvironment)
}

func TestNewAppliesEnvironmentDefaultLevel(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Environment: EnvironmentDevelopment, OTelLibraryName: "svc"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, logger.Level().Level())

	logger, err = New(Config{Environment: EnvironmentProduction, OTelLibraryName: "svc"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, logger.Level().Level())
}

func TestNewAppliesCustomLevel(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Environment: EnvironmentLocal, OTelLibraryName: "svc", Level: "error"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, logger.Level().Level())
}

func TestNewRejectsInvalidCustomLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Environment: EnvironmentProduction, OTelLibraryName: "svc", Level: "invalid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid level")
}

func TestLevelIsAdjustableAtRuntime(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Environment: EnvironmentProduction, OTelLibraryName: "svc"})
	require.NoError(t, err)

	logger.Level().SetLevel(zapcore.WarnLevel)
	assert.Equal(t, zapcore.WarnLevel, logger.Level().Level())
}

func TestNewWithCoreWritesToIt(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)

	logger, err := New(Config{Environment: EnvironmentProduction, OTelLibraryName: "svc", Core: core})
	require.NoError(t, err)

	logger.Log(context.Background(), logpkg.LevelInfo, "dropped by the core level")
	logger.Log(context.Background(), logpkg.LevelWarn, "forcing shutdown")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "forcing shutdown", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, logger.Level().Level())
}
