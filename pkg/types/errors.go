package types

import "errors"

// Store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid record ID")
	ErrInvalidData     = errors.New("invalid record data")
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// Schema and serialization errors.
var (
	ErrUnknownEnumValue = errors.New("unknown enum display value")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrUnknownType      = errors.New("unknown section type")
	ErrInvalidSchemaID  = errors.New("schema id is not a valid UUID")
	ErrSchemaMismatch   = errors.New("server returned a different schema than requested")
)

// Session and transport errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
	ErrNoRecord           = errors.New("no record is being edited")
	ErrSaveFailed         = errors.New("record could not be saved")
)
