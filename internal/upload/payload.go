package upload

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// geometry is a GeoJSON point. Coordinates are longitude first.
type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// payload is the body posted to the records endpoint for one stored row.
type payload struct {
	Schema       string          `json:"schema"`
	Data         json.RawMessage `json:"data"`
	Weather      string          `json:"weather,omitempty"`
	Light        string          `json:"light,omitempty"`
	Geom         geometry        `json:"geom"`
	OccurredFrom string          `json:"occurred_from"`
	OccurredTo   string          `json:"occurred_to"`
	Created      string          `json:"created"`
	Modified     string          `json:"modified"`
}

// buildPayload encodes rec for upload. The data column is embedded as JSON,
// not as a string, so a row whose data is not valid JSON is rejected with
// ErrInvalidData.
func buildPayload(rec types.StoredRecord) ([]byte, error) {
	if !json.Valid([]byte(rec.Data)) {
		return nil, errors.Wrap(types.ErrInvalidData, "build upload payload", slog.Int64("id", rec.ID))
	}

	modified := rec.UpdatedAt
	if modified.IsZero() {
		modified = rec.EnteredAt
	}
	p := payload{
		Schema:  rec.SchemaVersion,
		Data:    json.RawMessage(rec.Data),
		Weather: rec.Weather,
		Light:   rec.Light,
		Geom: geometry{
			Type:        "Point",
			Coordinates: [2]float64{rec.Longitude, rec.Latitude},
		},
		OccurredFrom: rec.OccurredFrom,
		OccurredTo:   rec.OccurredTo,
		Created:      rec.EnteredAt.UTC().Format(time.RFC3339),
		Modified:     modified.UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshal upload payload", slog.Int64("id", rec.ID))
	}
	return data, nil
}
