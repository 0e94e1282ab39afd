package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RedactsCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "runner")

	log.Info("connected", "postgres_dsn", "postgres://u:p@h/db", "backend", "postgres")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["postgres_dsn"])
	assert.Equal(t, "postgres", fields["backend"])
	assert.Equal(t, "runner", fields["component"])
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := FromZap(zap.New(core))

	log.Debug("hidden")
	log.Info("info")
	log.Warn("warn")
	log.Error("error", "err", "boom")

	assert.Equal(t, 3, logs.Len())
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "production"} {
		log, err := New(mode)
		require.NoError(t, err)
		log.Info("hello", "mode", mode)
	}
	Nop().Info("discarded")
}
