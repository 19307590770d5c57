// Package media stores captured images on disk.
package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// DirName is the image directory inside the data directory.
const DirName = "images"

// FileStore writes each capture to its own file named by a fresh UUID.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at <dataDir>/images.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dir: filepath.Join(dataDir, DirName)}
}

// Dir returns the directory images are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Store writes raw to a new .jpg file and returns its path.
func (s *FileStore) Store(ctx context.Context, raw []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.Wrap(types.ErrInvalidData, "store image: empty capture")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create image dir", slog.String("dir", s.dir))
	}

	path := filepath.Join(s.dir, uuid.NewString()+".jpg")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", errors.Wrap(err, "write image", slog.String("path", tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrap(err, "rename image", slog.String("path", path))
	}
	return path, nil
}

var _ types.ImageStore = (*FileStore)(nil)
