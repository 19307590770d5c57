package schema

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// CacheDirName is the directory inside the data directory holding fetched
// schema documents, one <uuid>.json per version.
const CacheDirName = "schemas"

// currentFile names the file recording the active schema version.
const currentFile = "current"

// Cache keeps fetched schema documents on disk so records can be edited
// offline and records saved under older versions can still be opened.
type Cache struct {
	dir string
}

// NewCache returns a Cache rooted at <dataDir>/schemas.
func NewCache(dataDir string) *Cache {
	return &Cache{dir: filepath.Join(dataDir, CacheDirName)}
}

// Save stores the document of schema id and marks it current.
func (c *Cache) Save(id string, doc []byte) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(types.ErrInvalidSchemaID, "cache schema", slog.String("schema", id))
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "create schema cache", slog.String("dir", c.dir))
	}
	if err := writeFileAtomic(filepath.Join(c.dir, id+".json"), doc); err != nil {
		return errors.Wrap(err, "write schema", slog.String("schema", id))
	}
	if err := writeFileAtomic(filepath.Join(c.dir, currentFile), []byte(id+"\n")); err != nil {
		return errors.Wrap(err, "write current schema", slog.String("schema", id))
	}
	return nil
}

// writeFileAtomic replaces path with data through a synced temp file in the
// same directory, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	fail := func(err error, msg string) error {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, msg, slog.String("path", tmpName))
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "sync temp file")
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err, "chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp file", slog.String("path", tmpName))
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename temp file", slog.String("path", path))
	}
	return nil
}

// CurrentID returns the version marked current. Returns ErrNotFound when no
// schema was ever saved.
func (c *Cache) CurrentID() (string, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, currentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(types.ErrNotFound, "no current schema, fetch one first")
		}
		return "", errors.Wrap(err, "read current schema")
	}
	return strings.TrimSpace(string(data)), nil
}

// Current loads and parses the current schema.
func (c *Cache) Current() (*types.RecordSchema, error) {
	id, err := c.CurrentID()
	if err != nil {
		return nil, err
	}
	return c.Load(id)
}

// Load reads and parses schema id.
func (c *Cache) Load(id string) (*types.RecordSchema, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrap(types.ErrInvalidSchemaID, "load schema", slog.String("schema", id))
	}
	doc, err := os.ReadFile(filepath.Join(c.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(types.ErrNotFound, "load schema", slog.String("schema", id))
		}
		return nil, errors.Wrap(err, "read schema", slog.String("schema", id))
	}
	return Parse(id, doc)
}
