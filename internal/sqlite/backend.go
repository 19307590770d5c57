// Package sqlite implements the local record store on SQLite. Rows hold the
// serialized record, the schema version it was created under and the
// constant fields snapshotted at save time. Every mutation runs in its own
// transaction so a crash mid-write never leaves a half-written row.
package sqlite

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "records.db"

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

// Backend is the SQLite record store. It must be attached before use; a
// detached Backend answers every operation with its failure value.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock replaces the clock used to stamp entered_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(logger *slog.Logger, opts ...Option) *Backend {
	b := &Backend{
		logger: logger.With(slog.String("component", "sqlite")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens <DataDir>/records.db, creating the directory and the schema
// when they do not exist. Existing rows are kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrap(err, "create data dir", slog.String("dir", dataDir))
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sqlx.Open(driverName, dbPath)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("path", dbPath))
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)

	if _, err := db.Exec(pragmas); err != nil {
		db.Close()
		return errors.Wrap(err, "set pragmas", slog.String("path", dbPath))
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return errors.Wrap(err, "create schema", slog.String("path", dbPath))
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Debug("attached", slog.String("path", dbPath))
	return nil
}

// Detach closes the database. After Detach, all operations fail as
// detached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return errors.Wrap(err, "close database")
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// Attached reports whether the backend is attached.
func (b *Backend) Attached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attached
}

var _ types.RecordStore = (*Backend)(nil)
