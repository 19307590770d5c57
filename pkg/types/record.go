package types

import (
	"context"
	"time"
)

// ConstantFields is the metadata present on every record independent of the
// schema-driven sections. It is snapshotted when a record is saved.
type ConstantFields struct {
	Weather      string  `json:"weather,omitempty"`
	Light        string  `json:"light,omitempty"`
	OccurredFrom string  `json:"occurred_from,omitempty"`
	OccurredTo   string  `json:"occurred_to,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// HasLocation reports whether a location fix was recorded. The zero
// coordinate pair means no fix was available at save time.
func (c ConstantFields) HasLocation() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

// StoredRecord is one row of the local record table.
type StoredRecord struct {
	ID            int64     // Assigned by the store, never reused.
	EnteredAt     time.Time // Time of first save.
	SchemaVersion string    // Schema UUID the record was created under.
	Data          string    // Serialized record JSON.
	ConstantFields
	UpdatedAt time.Time // Time of the latest save.
}

// RecordStore is the local table of saved records. Ordinary failures collapse
// to the documented failure values instead of errors: -1 from AddRecord, a
// row count other than 1 from UpdateRecord, false from the lookups.
type RecordStore interface {
	// Attach opens the store described by config.
	Attach(config Config) error
	// Detach closes the store. It is idempotent.
	Detach() error

	AddRecord(ctx context.Context, schemaVersion, data string, cf ConstantFields) int64
	UpdateRecord(ctx context.Context, data string, cf ConstantFields, id int64) int64
	GetSerializedRecordWithID(ctx context.Context, id int64) (string, bool)
	GetRecord(ctx context.Context, id int64) (*StoredRecord, error)
	ReadAllRecords(ctx context.Context) ([]StoredRecord, error)
	DeleteRecord(ctx context.Context, id int64) bool
	CountRecords(ctx context.Context) (int, error)
}

// SchemaProvider gives access to the root record type and to section item
// types by name. *RecordSchema implements it.
type SchemaProvider interface {
	RootType() *TypeDescriptor
	Type(name string) *TypeDescriptor
}

// ImageStore persists raw image captures and returns the stored path.
type ImageStore interface {
	Store(ctx context.Context, raw []byte) (string, error)
}

// LocationProvider supplies the last known location at save time.
type LocationProvider interface {
	LastLocation(ctx context.Context) (lat, lon float64, err error)
}

var _ SchemaProvider = (*RecordSchema)(nil)
