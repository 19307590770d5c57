package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

func TestRecords_CRUD(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	b, _ := newAttached(t, WithClock(clock.now))
	ctx := context.Background()

	id := b.AddRecord(ctx, "s1", "d1", types.ConstantFields{})
	require.Equal(t, int64(1), id, "first id on an empty store")

	data, ok := b.GetSerializedRecordWithID(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "d1", data)

	assert.Equal(t, int64(1), b.UpdateRecord(ctx, "d2", types.ConstantFields{}, 1))
	data, ok = b.GetSerializedRecordWithID(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "d2", data)

	second := b.AddRecord(ctx, "s1", "d3", types.ConstantFields{})
	require.Equal(t, int64(2), second)

	all, err := b.ReadAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ID, "most recently inserted first")
	assert.Equal(t, int64(1), all[1].ID)

	assert.True(t, b.DeleteRecord(ctx, 1))
	assert.False(t, b.DeleteRecord(ctx, 1), "already deleted")
	_, ok = b.GetSerializedRecordWithID(ctx, 1)
	assert.False(t, ok)

	third := b.AddRecord(ctx, "s1", "d4", types.ConstantFields{})
	assert.Equal(t, int64(3), third, "ids are never reused")
}

func TestRecords_GetRecord(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	b, _ := newAttached(t, WithClock(clock.now))
	ctx := context.Background()

	cf := types.ConstantFields{
		Weather:      "rain",
		Light:        "day",
		OccurredFrom: "2024-03-01T07:30:00Z",
		OccurredTo:   "2024-03-01T07:35:00Z",
		Latitude:     14.5995,
		Longitude:    120.9842,
	}
	id := b.AddRecord(ctx, "s1", `{"a":1}`, cf)
	require.Positive(t, id)

	rec, err := b.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "s1", rec.SchemaVersion)
	assert.Equal(t, `{"a":1}`, rec.Data)
	assert.Equal(t, cf, rec.ConstantFields)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 1, 0, time.UTC), rec.EnteredAt)
	assert.Equal(t, rec.EnteredAt, rec.UpdatedAt)

	assert.Equal(t, int64(1), b.UpdateRecord(ctx, "{}", types.ConstantFields{Weather: "fog"}, id))
	rec, err = b.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "fog", rec.Weather)
	assert.Empty(t, rec.Light)
	assert.True(t, rec.UpdatedAt.After(rec.EnteredAt), "update moves updated_at only")

	_, err = b.GetRecord(ctx, 99)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetRecord(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestRecords_UpdateMissingRow(t *testing.T) {
	b, _ := newAttached(t)

	assert.Equal(t, int64(0), b.UpdateRecord(context.Background(), "d", types.ConstantFields{}, 42))
}

func TestRecords_ReadAllOrdersByEnteredAt(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	i := 0
	b, _ := newAttached(t, WithClock(func() time.Time {
		ts := times[i]
		i++
		return ts
	}))
	ctx := context.Background()

	for n := range times {
		require.Equal(t, int64(n+1), b.AddRecord(ctx, "s", fmt.Sprintf("d%d", n+1), types.ConstantFields{}))
	}

	all, err := b.ReadAllRecords(ctx)
	require.NoError(t, err)
	ids := make([]int64, len(all))
	for n, r := range all {
		ids[n] = r.ID
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, ids, "newest first, ties by id descending")

	again, err := b.ReadAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, again, "order is stable across queries")

	n, err := b.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRecords_EmptyStore(t *testing.T) {
	b, _ := newAttached(t)
	ctx := context.Background()

	all, err := b.ReadAllRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := b.CountRecords(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	early := formatTime(time.Date(2024, 1, 1, 9, 0, 0, 5000, time.UTC))
	late := formatTime(time.Date(2024, 1, 1, 9, 0, 0, 500000000, time.UTC))
	assert.Len(t, early, len(late))
	assert.Less(t, early, late)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 5000, time.UTC), parseTime(early))
}
