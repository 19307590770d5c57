// Tests for SQLite backend lifecycle.
package sqlite

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/testhelpers"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// fakeClock hands out strictly increasing times one second apart.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newAttached(t *testing.T, opts ...Option) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend(testhelpers.NewLogger(io.Discard), opts...)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { _ = b.Detach() })
	return b, dir
}

func TestBackend_Attach(t *testing.T) {
	b, dir := newAttached(t)

	_, err := os.Stat(filepath.Join(dir, DBFileName))
	require.NoError(t, err, "records.db not created")
	assert.True(t, b.Attached())

	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_AttachCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := NewBackend(testhelpers.NewLogger(io.Discard))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, DBFileName))
	assert.NoError(t, err)
}

func TestBackend_AttachValidatesConfig(t *testing.T) {
	b := NewBackend(testhelpers.NewLogger(io.Discard))

	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()}), types.ErrBackendUnknown)
	assert.False(t, b.Attached())
}

func TestBackend_AttachDefaultsToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	b := NewBackend(testhelpers.NewLogger(io.Discard))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite}))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, DBFileName))
	assert.NoError(t, err, "empty DataDir opens records.db in the working directory")
}

func TestBackend_Detach(t *testing.T) {
	b, _ := newAttached(t)
	ctx := context.Background()

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	assert.Equal(t, int64(-1), b.AddRecord(ctx, "s1", "d1", types.ConstantFields{}))
	assert.Equal(t, int64(0), b.UpdateRecord(ctx, "d2", types.ConstantFields{}, 1))
	_, ok := b.GetSerializedRecordWithID(ctx, 1)
	assert.False(t, ok)
	assert.False(t, b.DeleteRecord(ctx, 1))

	_, err := b.ReadAllRecords(ctx)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.CountRecords(ctx)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.GetRecord(ctx, 1)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackend_ReattachKeepsRows(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	ctx := context.Background()

	b := NewBackend(testhelpers.NewLogger(io.Discard))
	require.NoError(t, b.Attach(config))
	id := b.AddRecord(ctx, "s1", "d1", types.ConstantFields{})
	require.NoError(t, b.Detach())

	b2 := NewBackend(testhelpers.NewLogger(io.Discard))
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	data, ok := b2.GetSerializedRecordWithID(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "d1", data)
}
