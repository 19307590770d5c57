package schema_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/testhelpers"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

func TestFieldOrderFollowsDeclaredOrdering(t *testing.T) {
	td := &types.TypeDescriptor{
		Name: "Witness",
		Fields: []types.FieldDescriptor{
			{ID: "phone", DisplayName: "Phone number", Kind: types.KindText},
			{ID: "name", DisplayName: "Name", Kind: types.KindText},
			{ID: "statement", Kind: types.KindText},
		},
		Ordering: []string{"Name", "statement", "Phone number"},
	}
	var logs bytes.Buffer
	r := schema.NewReader(testhelpers.NewLogger(&logs))

	assert.Equal(t, []string{"name", "statement", "phone"}, r.FieldOrder(td))
	assert.NotContains(t, logs.String(), "does not match")
}

func TestFieldOrderExcludesHiddenLocalID(t *testing.T) {
	s := parseFixture(t)
	var logs bytes.Buffer
	r := schema.NewReader(testhelpers.NewLogger(&logs))

	assert.Equal(t, []string{"name", "address", "vehicle", "factors"}, r.FieldOrder(s.Type("driverPerson")))
	assert.Equal(t, []string{"incidentDetails", "person", "vehicle", "photo"}, r.FieldOrder(s.RootType()))
	assert.Empty(t, logs.String())
}

func TestFieldOrderFallsBackToDeclarationOrder(t *testing.T) {
	td := &types.TypeDescriptor{
		Name:   "Loose",
		Fields: []types.FieldDescriptor{{ID: "b"}, {ID: "a"}},
	}
	var logs bytes.Buffer
	r := schema.NewReader(testhelpers.NewLogger(&logs))

	assert.Equal(t, []string{"b", "a"}, r.FieldOrder(td))
	assert.Contains(t, logs.String(), "no field ordering")
}

func TestFieldOrderMismatchIsOnlyAWarning(t *testing.T) {
	td := &types.TypeDescriptor{
		Name:     "Broken",
		Fields:   []types.FieldDescriptor{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Ordering: []string{"b", "ghost"},
	}
	var logs bytes.Buffer
	r := schema.NewReader(testhelpers.NewLogger(&logs))

	assert.Equal(t, []string{"b"}, r.FieldOrder(td))
	assert.Contains(t, logs.String(), "not declared")
	assert.Contains(t, logs.String(), "does not match")
}

func TestFieldOrderNilType(t *testing.T) {
	r := schema.NewReader(testhelpers.NewLogger(io.Discard))
	assert.Nil(t, r.FieldOrder(nil))
	assert.Nil(t, r.Descriptor(nil))
}

func TestDescriptorIsCached(t *testing.T) {
	s := parseFixture(t)
	r := schema.NewReader(testhelpers.NewLogger(io.Discard))

	first := r.Descriptor(s.Type("driverVehicle"))
	second := r.Descriptor(s.Type("driverVehicle"))
	require.NotNil(t, first)
	assert.Same(t, first, second)

	f, ok := first.Field("plateNumber")
	require.True(t, ok)
	assert.Equal(t, "Plate number", f.DisplayName)
}

func TestFieldMetadata(t *testing.T) {
	r := schema.NewReader(testhelpers.NewLogger(io.Discard))

	named := types.FieldDescriptor{ID: "plateNumber", DisplayName: "Plate number", Kind: types.KindText, Required: true}
	bare := types.FieldDescriptor{ID: "make"}

	assert.Equal(t, "Plate number", r.Label(named))
	assert.Equal(t, "make", r.Label(bare))
	assert.Equal(t, types.KindText, r.Kind(named))
	assert.Equal(t, types.KindNone, r.Kind(bare))
	assert.Equal(t, types.KindNone, r.Kind(types.FieldDescriptor{Kind: "number"}))
	assert.True(t, r.IsRequired(named))
	assert.False(t, r.IsRequired(bare))
}

func TestTitles(t *testing.T) {
	s := parseFixture(t)
	var logs bytes.Buffer
	r := schema.NewReader(testhelpers.NewLogger(&logs))

	person, _ := s.RootType().Field("person")
	assert.Equal(t, "People", r.PluralTitle(person, "Items"))
	assert.Equal(t, "Person", r.SingularTitle(person, "Item"))
	assert.Empty(t, logs.String())

	photo, _ := s.RootType().Field("photo")
	assert.Equal(t, "Photos", r.PluralTitle(photo, "Photos"))
	assert.Equal(t, "Photo", r.SingularTitle(photo, "Photo"))
	assert.Contains(t, logs.String(), "no plural title")
	assert.Contains(t, logs.String(), "no title")
}
