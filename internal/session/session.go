// Package session holds the state of one logged-in user: their credentials,
// the schema records are edited against and the record currently being
// edited. A Session is created on login and closed on logout; it is used
// from the editing goroutine only.
package session

import (
	"context"
	"log/slog"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/codec"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/form"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// Deps are the collaborators a Session saves and loads records through.
type Deps struct {
	Store    types.RecordStore
	Location types.LocationProvider // Optional.
	Logger   *slog.Logger
}

// Session is one user's editing context.
type Session struct {
	user   string
	token  string
	schema *types.RecordSchema

	store     types.RecordStore
	location  types.LocationProvider
	codec     *codec.Codec
	navigator *form.Navigator
	labeler   *form.Labeler
	logger    *slog.Logger

	record   *types.Item
	recordID int64 // 0 until the record is first saved.
	closed   bool
}

// New starts a session for user against schema s.
func New(user, token string, s *types.RecordSchema, deps Deps) *Session {
	logger := deps.Logger.With(slog.String("component", "session"), slog.String("user", user))
	reader := schema.NewReader(deps.Logger)
	return &Session{
		user:      user,
		token:     token,
		schema:    s,
		store:     deps.Store,
		location:  deps.Location,
		codec:     codec.New(s, deps.Logger),
		navigator: form.NewNavigator(s, reader, deps.Logger),
		labeler:   form.NewLabeler(reader, deps.Logger),
		logger:    logger,
	}
}

// User returns the logged-in user name.
func (s *Session) User() string { return s.user }

// Token returns the API token of the session.
func (s *Session) Token() string { return s.token }

// Schema returns the schema records are edited against.
func (s *Session) Schema() *types.RecordSchema { return s.schema }

// Navigator returns the section navigator for the session's schema.
func (s *Session) Navigator() *form.Navigator { return s.navigator }

// Labeler returns the list item labeler for the session's schema.
func (s *Session) Labeler() *form.Labeler { return s.labeler }

// Codec returns the record codec for the session's schema.
func (s *Session) Codec() *codec.Codec { return s.codec }

// Begin starts editing a new empty record, replacing any record in
// progress.
func (s *Session) Begin() (*types.Item, error) {
	if s.closed {
		return nil, types.ErrNoSession
	}
	if s.record != nil {
		s.logger.Info("discarding unsaved record", slog.Int64("id", s.recordID))
	}
	s.record = s.schema.NewRecord()
	s.recordID = 0
	return s.record, nil
}

// Resume loads stored record id for editing.
func (s *Session) Resume(ctx context.Context, id int64) (*types.Item, error) {
	if s.closed {
		return nil, types.ErrNoSession
	}
	data, ok := s.store.GetSerializedRecordWithID(ctx, id)
	if !ok {
		return nil, errors.Wrap(types.ErrNotFound, "resume record", slog.Int64("id", id))
	}
	record, err := s.codec.Deserialize([]byte(data))
	if err != nil {
		return nil, errors.Wrap(err, "resume record", slog.Int64("id", id))
	}
	s.record = record
	s.recordID = id
	return record, nil
}

// Current returns the record being edited and its store id, which is 0 for
// a record never saved.
func (s *Session) Current() (*types.Item, int64, error) {
	if s.closed {
		return nil, 0, types.ErrNoSession
	}
	if s.record == nil {
		return nil, 0, types.ErrNoRecord
	}
	return s.record, s.recordID, nil
}

// Save writes the record being edited with the given constant fields and
// returns its store id. The location is taken from the location provider;
// without a fix the record is saved at (0,0) and withheld from upload until
// saved again with one. A new record is inserted, a resumed one updated in
// place.
func (s *Session) Save(ctx context.Context, cf types.ConstantFields) (int64, error) {
	if s.closed {
		return 0, types.ErrNoSession
	}
	if s.record == nil {
		return 0, types.ErrNoRecord
	}

	if s.location != nil {
		lat, lon, err := s.location.LastLocation(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "no location for record", errors.SlogError(err))
		} else {
			cf.Latitude, cf.Longitude = lat, lon
		}
	}

	data, err := s.codec.Serialize(s.record)
	if err != nil {
		return 0, errors.Wrap(err, "save record")
	}

	if s.recordID == 0 {
		id := s.store.AddRecord(ctx, s.schema.Version, string(data), cf)
		if id == -1 {
			return 0, errors.Wrap(types.ErrSaveFailed, "insert record")
		}
		s.recordID = id
		s.logger.InfoContext(ctx, "record saved", slog.Int64("id", id))
		return id, nil
	}

	if n := s.store.UpdateRecord(ctx, string(data), cf, s.recordID); n != 1 {
		return 0, errors.Wrap(types.ErrSaveFailed, "update record",
			slog.Int64("id", s.recordID), slog.Int64("rows", n))
	}
	s.logger.InfoContext(ctx, "record updated", slog.Int64("id", s.recordID))
	return s.recordID, nil
}

// Discard drops the record being edited without saving it.
func (s *Session) Discard() {
	s.record = nil
	s.recordID = 0
}

// Close ends the session. Every later call fails with ErrNoSession.
func (s *Session) Close() {
	s.Discard()
	s.token = ""
	s.closed = true
}
