// Package types defines the schema description, the record graph value types,
// the persisted row shape, the collaborator interfaces, and the standard
// errors shared by the record engine, the local store, and the uploader.
//
// A RecordSchema is built once from the server's JSON Schema and is treated as
// immutable for the lifetime of an editing session. Records are trees of
// Items whose fields hold Values; every Value is one of the concrete types in
// value.go.
package types
