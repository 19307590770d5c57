package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// timeLayout is fixed width, so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// sqliteTimeLayout is the format of CURRENT_TIMESTAMP defaults.
const sqliteTimeLayout = "2006-01-02 15:04:05"

const recordColumns = `id, entered_at, schema_version, data, weather, light,
	occurred_from, occurred_to, latitude, longitude, updated_at`

// recordRow is the scan target for one records row.
type recordRow struct {
	ID            int64           `db:"id"`
	EnteredAt     string          `db:"entered_at"`
	SchemaVersion string          `db:"schema_version"`
	Data          string          `db:"data"`
	Weather       sql.NullString  `db:"weather"`
	Light         sql.NullString  `db:"light"`
	OccurredFrom  sql.NullString  `db:"occurred_from"`
	OccurredTo    sql.NullString  `db:"occurred_to"`
	Latitude      sql.NullFloat64 `db:"latitude"`
	Longitude     sql.NullFloat64 `db:"longitude"`
	UpdatedAt     sql.NullString  `db:"updated_at"`
}

func (r recordRow) toStored() types.StoredRecord {
	return types.StoredRecord{
		ID:            r.ID,
		EnteredAt:     parseTime(r.EnteredAt),
		SchemaVersion: r.SchemaVersion,
		Data:          r.Data,
		ConstantFields: types.ConstantFields{
			Weather:      r.Weather.String,
			Light:        r.Light.String,
			OccurredFrom: r.OccurredFrom.String,
			OccurredTo:   r.OccurredTo.String,
			Latitude:     r.Latitude.Float64,
			Longitude:    r.Longitude.Float64,
		},
		UpdatedAt: parseTime(r.UpdatedAt.String),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, sqliteTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// AddRecord inserts a new row and returns its id, or -1 when the insert
// fails. The failure itself is logged.
func (b *Backend) AddRecord(ctx context.Context, schemaVersion, data string, cf types.ConstantFields) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		b.logger.Warn("add record on a detached store")
		return -1
	}

	now := formatTime(b.now())
	var id int64
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO records (entered_at, schema_version, data, weather, light,
				occurred_from, occurred_to, latitude, longitude, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			now, schemaVersion, data,
			nullString(cf.Weather), nullString(cf.Light),
			nullString(cf.OccurredFrom), nullString(cf.OccurredTo),
			cf.Latitude, cf.Longitude, now,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "add record failed", errors.SlogError(err))
		return -1
	}
	return id
}

// UpdateRecord rewrites the data and constant fields of row id and returns
// the number of rows affected. Anything other than 1 means the row is gone
// or the update failed; failures return 0 and are logged.
func (b *Backend) UpdateRecord(ctx context.Context, data string, cf types.ConstantFields, id int64) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		b.logger.Warn("update record on a detached store", slog.Int64("id", id))
		return 0
	}

	var affected int64
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE records SET data = ?, weather = ?, light = ?, occurred_from = ?,
				occurred_to = ?, latitude = ?, longitude = ?, updated_at = ?
			WHERE id = ?`,
			data,
			nullString(cf.Weather), nullString(cf.Light),
			nullString(cf.OccurredFrom), nullString(cf.OccurredTo),
			cf.Latitude, cf.Longitude, formatTime(b.now()),
			id,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "update record failed", slog.Int64("id", id), errors.SlogError(err))
		return 0
	}
	if affected != 1 {
		b.logger.WarnContext(ctx, "update touched an unexpected number of rows",
			slog.Int64("id", id), slog.Int64("rows", affected))
	}
	return affected
}

// GetSerializedRecordWithID returns the serialized data of row id. The
// boolean is false when there is no such row.
func (b *Backend) GetSerializedRecordWithID(ctx context.Context, id int64) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		b.logger.Warn("read record on a detached store", slog.Int64("id", id))
		return "", false
	}

	var data string
	err := b.db.GetContext(ctx, &data, "SELECT data FROM records WHERE id = ?", id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			b.logger.ErrorContext(ctx, "read record failed", slog.Int64("id", id), errors.SlogError(err))
		}
		return "", false
	}
	return data, true
}

// GetRecord returns the full row id. Returns ErrNotFound if it does not
// exist.
func (b *Backend) GetRecord(ctx context.Context, id int64) (*types.StoredRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	if id <= 0 {
		return nil, types.ErrInvalidID
	}

	var row recordRow
	err := b.db.GetContext(ctx, &row, "SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, errors.Wrap(err, "get record", slog.Int64("id", id))
	}
	rec := row.toStored()
	return &rec, nil
}

// ReadAllRecords returns every row, most recently entered first. Rows with
// the same entered_at come highest id first.
func (b *Backend) ReadAllRecords(ctx context.Context) ([]types.StoredRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	var rows []recordRow
	err := b.db.SelectContext(ctx, &rows,
		"SELECT "+recordColumns+" FROM records ORDER BY entered_at DESC, id DESC")
	if err != nil {
		return nil, errors.Wrap(err, "read all records")
	}
	records := make([]types.StoredRecord, len(rows))
	for i, r := range rows {
		records[i] = r.toStored()
	}
	return records, nil
}

// DeleteRecord removes row id and reports whether a row was removed.
func (b *Backend) DeleteRecord(ctx context.Context, id int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		b.logger.Warn("delete record on a detached store", slog.Int64("id", id))
		return false
	}

	var affected int64
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "delete record failed", slog.Int64("id", id), errors.SlogError(err))
		return false
	}
	return affected == 1
}

// CountRecords returns the number of stored rows.
func (b *Backend) CountRecords(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreDetached
	}

	var n int
	if err := b.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM records"); err != nil {
		return 0, errors.Wrap(err, "count records")
	}
	return n, nil
}

// inTx runs fn in a transaction, committing when it returns nil and rolling
// back otherwise.
func (b *Backend) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}
