package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// exportLine is one record in a JSONL export. Data holds the serialized
// record text unchanged.
type exportLine struct {
	ID            int64  `json:"id"`
	EnteredAt     string `json:"entered_at"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	SchemaVersion string `json:"schema_version"`
	Data          string `json:"data"`
	types.ConstantFields
}

// ExportRecords writes every stored row to path as JSON lines, oldest
// first, and returns the number written. The file is replaced atomically.
func (b *Backend) ExportRecords(ctx context.Context, path string) (int, error) {
	records, err := b.ReadAllRecords(ctx)
	if err != nil {
		return 0, err
	}

	lines := make([][]byte, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		line, err := json.Marshal(exportLine{
			ID:             r.ID,
			EnteredAt:      formatTime(r.EnteredAt),
			UpdatedAt:      formatTime(r.UpdatedAt),
			SchemaVersion:  r.SchemaVersion,
			Data:           r.Data,
			ConstantFields: r.ConstantFields,
		})
		if err != nil {
			return 0, errors.Wrap(err, "encode record", slog.Int64("id", r.ID))
		}
		lines = append(lines, line)
	}
	if err := writeJSONL(path, lines); err != nil {
		return 0, err
	}
	b.logger.InfoContext(ctx, "records exported", slog.String("path", path), slog.Int("count", len(lines)))
	return len(lines), nil
}

// ImportRecords adds the records in a JSONL export at path as new rows and
// returns the number added. Imported rows get fresh ids and keep their
// entry time. Malformed lines and lines without a schema version or data
// are skipped. Either every valid line is added or none is.
func (b *Backend) ImportRecords(ctx context.Context, path string) (int, error) {
	raw, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return 0, types.ErrStoreDetached
	}

	now := formatTime(b.now())
	added := 0
	err = b.inTx(ctx, func(tx *sqlx.Tx) error {
		for i, msg := range raw {
			var l exportLine
			if err := json.Unmarshal(msg, &l); err != nil || l.SchemaVersion == "" || l.Data == "" {
				b.logger.WarnContext(ctx, "skipping import line", slog.String("path", path), slog.Int("line", i+1))
				continue
			}
			enteredAt := now
			if t := parseTime(l.EnteredAt); !t.IsZero() {
				enteredAt = formatTime(t)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO records (entered_at, schema_version, data, weather, light,
					occurred_from, occurred_to, latitude, longitude, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				enteredAt, l.SchemaVersion, l.Data,
				nullString(l.Weather), nullString(l.Light),
				nullString(l.OccurredFrom), nullString(l.OccurredTo),
				l.Latitude, l.Longitude, now,
			)
			if err != nil {
				return errors.Wrap(err, "import record", slog.Int("line", i+1))
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	b.logger.InfoContext(ctx, "records imported", slog.String("path", path), slog.Int("count", added))
	return added, nil
}

// readJSONL returns each non-empty line of path that is valid JSON.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		lines = append(lines, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return lines, nil
}

// writeJSONL writes lines to path through a synced temp file and a rename.
func writeJSONL(path string, lines [][]byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
