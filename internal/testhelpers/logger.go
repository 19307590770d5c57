// Package testhelpers holds fixtures shared by package tests: a quiet logger
// and a small accident record schema.
package testhelpers

import (
	"io"
	"log/slog"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/logging"
)

// NewLogger creates a new logger with the given log sink such as io.Discard.
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}
