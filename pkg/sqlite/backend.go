// Package sqlite provides the public API for the SQLite record store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"log/slog"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/sqlite"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend(logger)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	})
//	defer store.Detach()
func NewBackend(logger *slog.Logger) types.RecordStore {
	return sqlite.NewBackend(logger)
}
