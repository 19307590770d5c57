// Package upload sends locally stored records to the server one at a time
// and removes each row the server accepts.
package upload

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/transport"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// RecordsPath is the endpoint records are posted to.
const RecordsPath = "/api/records/"

// Listener receives batch progress. Exactly one of BatchFinished,
// InvalidCredentials or Cancelled ends every batch that got past reading
// the store.
type Listener interface {
	RecordUploaded(id int64)
	BatchFinished(failures int)
	InvalidCredentials()
	Cancelled()
}

// Summary counts what happened to the rows of one batch.
type Summary struct {
	Uploaded int
	Failed   int
	// Withheld rows have no location fix yet and stay in the store.
	Withheld int
}

// Coordinator runs upload batches.
type Coordinator struct {
	store  types.RecordStore
	client *transport.Client
	logger *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(store types.RecordStore, client *transport.Client, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		client: client,
		logger: logger.With(slog.String("component", "upload")),
	}
}

// Upload posts every stored row with a location fix, sequentially. A 201
// deletes the row. A 403 stops the batch and returns ErrInvalidCredentials.
// Any other response counts as a failure and the batch moves on. Cancelling
// ctx stops the batch with a Cancelled notification and context.Canceled.
func (c *Coordinator) Upload(ctx context.Context, l Listener) (Summary, error) {
	var sum Summary

	records, err := c.store.ReadAllRecords(ctx)
	if err != nil {
		return sum, errors.Wrap(err, "read records for upload")
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			return sum, c.cancelled(ctx, l, sum)
		}

		logger := c.logger.With(slog.Int64("id", rec.ID))
		if !rec.HasLocation() {
			logger.InfoContext(ctx, "withholding record without a location")
			sum.Withheld++
			continue
		}

		body, err := buildPayload(rec)
		if err != nil {
			logger.ErrorContext(ctx, "cannot build payload", errors.SlogError(err))
			sum.Failed++
			continue
		}

		resp, err := c.client.PostJSON(ctx, RecordsPath, body)
		if err != nil {
			if ctx.Err() != nil {
				return sum, c.cancelled(ctx, l, sum)
			}
			logger.ErrorContext(ctx, "upload failed", errors.SlogError(err))
			sum.Failed++
			continue
		}

		switch resp.StatusCode {
		case http.StatusCreated:
			if !c.store.DeleteRecord(ctx, rec.ID) {
				logger.WarnContext(ctx, "uploaded record could not be deleted")
			}
			sum.Uploaded++
			if ctx.Err() != nil {
				return sum, c.cancelled(ctx, l, sum)
			}
			l.RecordUploaded(rec.ID)
		case http.StatusForbidden:
			logger.WarnContext(ctx, "server rejected credentials, stopping batch")
			if ctx.Err() != nil {
				return sum, c.cancelled(ctx, l, sum)
			}
			l.InvalidCredentials()
			return sum, errors.Wrap(types.ErrInvalidCredentials, "upload record", slog.Int64("id", rec.ID))
		default:
			logger.WarnContext(ctx, "server did not accept record",
				slog.Int("status", resp.StatusCode), slog.String("body", truncate(resp.Body, 200)))
			sum.Failed++
		}
	}

	if ctx.Err() != nil {
		return sum, c.cancelled(ctx, l, sum)
	}
	c.logger.InfoContext(ctx, "batch finished",
		slog.Int("uploaded", sum.Uploaded), slog.Int("failed", sum.Failed), slog.Int("withheld", sum.Withheld))
	l.BatchFinished(sum.Failed)
	return sum, nil
}

func (c *Coordinator) cancelled(ctx context.Context, l Listener, sum Summary) error {
	c.logger.InfoContext(ctx, "batch cancelled", slog.Int("uploaded", sum.Uploaded))
	l.Cancelled()
	return context.Canceled
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
