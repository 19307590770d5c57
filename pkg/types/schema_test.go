package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumTypeFromDisplay(t *testing.T) {
	e := &EnumType{Name: "Vehicle.factors", Values: []string{"Alcohol suspected", "Drugs suspected"}}

	got, ok := e.FromDisplay("Drugs suspected")
	assert.True(t, ok)
	assert.Equal(t, "Drugs suspected", got)

	_, ok = e.FromDisplay("Speeding")
	assert.False(t, ok)

	var missing *EnumType
	_, ok = missing.FromDisplay("Drugs suspected")
	assert.False(t, ok)
}

func TestFieldDescriptorName(t *testing.T) {
	assert.Equal(t, "Plate number", FieldDescriptor{ID: "plateNumber", DisplayName: "Plate number"}.Name())
	assert.Equal(t, "plateNumber", FieldDescriptor{ID: "plateNumber"}.Name())
}

func TestFieldDescriptorIsSection(t *testing.T) {
	assert.True(t, FieldDescriptor{ID: "vehicle", ItemType: "Vehicle"}.IsSection())
	assert.False(t, FieldDescriptor{ID: "name", Kind: KindText}.IsSection())
	assert.False(t, FieldDescriptor{ID: "orphan"}.IsSection())
}

func TestTypeDescriptorField(t *testing.T) {
	td := &TypeDescriptor{Name: "Person", Fields: []FieldDescriptor{{ID: "name", Kind: KindText}}}

	f, ok := td.Field("name")
	assert.True(t, ok)
	assert.Equal(t, KindText, f.Kind)

	_, ok = td.Field("age")
	assert.False(t, ok)

	var nilType *TypeDescriptor
	_, ok = nilType.Field("name")
	assert.False(t, ok)
}

func TestRecordSchemaLookup(t *testing.T) {
	s := &RecordSchema{
		Root:  "Record",
		Types: map[string]*TypeDescriptor{"Record": {Name: "Record"}},
	}
	assert.Equal(t, "Record", s.RootType().Name)
	assert.Nil(t, s.Type("Missing"))

	rec := s.NewRecord()
	assert.Equal(t, "Record", rec.Type)
	assert.Empty(t, rec.Fields)

	var nilSchema *RecordSchema
	assert.Nil(t, nilSchema.Type("Record"))
}

func TestIsValidKind(t *testing.T) {
	for _, k := range []FieldKind{KindText, KindSelectList, KindReference, KindImage, KindHidden} {
		assert.True(t, IsValidKind(k), k)
	}
	assert.False(t, IsValidKind(KindNone))
	assert.False(t, IsValidKind("checkbox"))
}

func TestConstantFieldsHasLocation(t *testing.T) {
	assert.False(t, ConstantFields{}.HasLocation())
	assert.True(t, ConstantFields{Latitude: 14.6}.HasLocation())
	assert.True(t, ConstantFields{Longitude: 121.0}.HasLocation())
}
