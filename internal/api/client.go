// Package api reads record types and record schemas from the DRIVER server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/transport"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// Endpoint paths.
const (
	RecordTypesPath   = "/api/recordtypes/"
	RecordSchemasPath = "/api/recordschemas/"
)

// ErrNoRecordType is returned when the server lists no active record type
// with the requested label.
var ErrNoRecordType = errors.NewSentinel("no active record type")

type recordTypeJSON struct {
	UUID          string `json:"uuid"`
	Label         string `json:"label"`
	PluralLabel   string `json:"plural_label"`
	CurrentSchema string `json:"current_schema"`
	Active        bool   `json:"active"`
}

type recordTypesJSON struct {
	Results []recordTypeJSON `json:"results"`
}

type recordSchemaJSON struct {
	UUID       string          `json:"uuid"`
	Version    int             `json:"version"`
	RecordType string          `json:"record_type"`
	Schema     json.RawMessage `json:"schema"`
}

// Client queries the schema endpoints.
type Client struct {
	transport *transport.Client
	logger    *slog.Logger
}

// NewClient creates a Client.
func NewClient(t *transport.Client, logger *slog.Logger) *Client {
	return &Client{
		transport: t,
		logger:    logger.With(slog.String("component", "api")),
	}
}

// CurrentSchemaID returns the current schema UUID of the active record type
// labeled recordType, or of the first active record type when recordType is
// empty. A schema id that is not a UUID is ErrInvalidSchemaID.
func (c *Client) CurrentSchemaID(ctx context.Context, recordType string) (string, error) {
	q := url.Values{"active": {"True"}, "format": {"json"}}
	body, err := c.get(ctx, RecordTypesPath+"?"+q.Encode())
	if err != nil {
		return "", err
	}

	var list recordTypesJSON
	if err := json.Unmarshal(body, &list); err != nil {
		return "", errors.Wrap(err, "decode record types")
	}

	for _, rt := range list.Results {
		if recordType != "" && rt.Label != recordType {
			continue
		}
		if _, err := uuid.Parse(rt.CurrentSchema); err != nil {
			return "", errors.Wrap(types.ErrInvalidSchemaID, "read current schema",
				slog.String("record_type", rt.Label), slog.String("schema", rt.CurrentSchema))
		}
		c.logger.DebugContext(ctx, "current schema",
			slog.String("record_type", rt.Label), slog.String("schema", rt.CurrentSchema))
		return rt.CurrentSchema, nil
	}
	return "", errors.Wrap(ErrNoRecordType, "find record type", slog.String("record_type", recordType))
}

// FetchSchema downloads and parses schema id. The server must answer with
// the schema it was asked for; anything else is ErrSchemaMismatch.
func (c *Client) FetchSchema(ctx context.Context, id string) (*types.RecordSchema, []byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, errors.Wrap(types.ErrInvalidSchemaID, "fetch schema", slog.String("schema", id))
	}

	body, err := c.get(ctx, RecordSchemasPath+id+"/?format=json")
	if err != nil {
		return nil, nil, err
	}

	var rs recordSchemaJSON
	if err := json.Unmarshal(body, &rs); err != nil {
		return nil, nil, errors.Wrap(err, "decode record schema", slog.String("schema", id))
	}
	if rs.UUID != id {
		return nil, nil, errors.Wrap(types.ErrSchemaMismatch, "fetch schema",
			slog.String("requested", id), slog.String("received", rs.UUID))
	}

	s, err := schema.Parse(id, rs.Schema)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse fetched schema", slog.String("schema", id))
	}
	return s, rs.Schema, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.transport.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.Wrap(types.ErrInvalidCredentials, "get", slog.String("path", path))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.New(fmt.Sprintf("unexpected status %d", resp.StatusCode), slog.String("path", path))
	}
	return resp.Body, nil
}
