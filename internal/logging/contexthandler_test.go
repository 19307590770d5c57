package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandlerAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug)

	ctx := logging.WithAttrs(context.Background(), slog.Int64("record_id", 7))
	ctx = logging.WithAttrs(ctx, slog.String("schema", "s1"))
	logger.InfoContext(ctx, "saved record")

	out := buf.String()
	require.Contains(t, out, "saved record")
	assert.Contains(t, out, "record_id=7")
	assert.Contains(t, out, "schema=s1")
}

func TestWithAttrsDoesNotLeakBetweenBranches(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug)

	base := logging.WithAttrs(context.Background(), slog.String("a", "1"))
	_ = logging.WithAttrs(base, slog.String("b", "2"))
	logger.InfoContext(base, "only a")

	assert.NotContains(t, buf.String(), "b=2")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(name), name)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}
