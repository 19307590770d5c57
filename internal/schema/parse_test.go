package schema_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/testhelpers"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

func parseFixture(t *testing.T) *types.RecordSchema {
	t.Helper()
	s, err := schema.Parse(testhelpers.SchemaVersion, []byte(testhelpers.SchemaJSON))
	require.NoError(t, err)
	return s
}

func TestParseRoot(t *testing.T) {
	s := parseFixture(t)

	assert.Equal(t, testhelpers.SchemaVersion, s.Version)
	assert.Equal(t, schema.RootTypeName, s.Root)

	root := s.RootType()
	require.NotNil(t, root)
	require.Len(t, root.Fields, 4)
	assert.Equal(t, []string{"Incident Details", "Person", "Vehicle", "Photo"}, root.Ordering)

	details := root.Fields[0]
	assert.Equal(t, "incidentDetails", details.ID)
	assert.Equal(t, "Incident Details", details.DisplayName)
	assert.Equal(t, "driverIncidentDetails", details.ItemType)
	assert.False(t, details.Multiple)
	assert.True(t, details.IsSection())

	person, ok := root.Field("person")
	require.True(t, ok)
	assert.True(t, person.Multiple)
	assert.Equal(t, "Person", person.Title)
	assert.Equal(t, "People", person.PluralTitle)
}

func TestParseLeafFields(t *testing.T) {
	s := parseFixture(t)

	person := s.Type("driverPerson")
	require.NotNil(t, person)
	assert.Equal(t, []string{"Name", "Address", "Vehicle", "Factors"}, person.Ordering)

	localID, ok := person.Field(types.LocalIDField)
	require.True(t, ok)
	assert.Equal(t, types.KindHidden, localID.Kind)
	assert.Empty(t, localID.DisplayName)
	assert.True(t, localID.Required)

	name, ok := person.Field("name")
	require.True(t, ok)
	assert.Equal(t, types.KindText, name.Kind)
	assert.True(t, name.Required)

	vehicle, ok := person.Field("vehicle")
	require.True(t, ok)
	assert.Equal(t, types.KindReference, vehicle.Kind)
	assert.Equal(t, "driverVehicle", vehicle.Target)

	factors, ok := person.Field("factors")
	require.True(t, ok)
	assert.Equal(t, types.KindSelectList, factors.Kind)
	assert.True(t, factors.MultiSelect)
	require.NotNil(t, factors.Enum)
	assert.Equal(t, []string{"Alcohol suspected", "Drugs suspected"}, factors.Enum.Values)

	details := s.Type("driverIncidentDetails")
	severity, ok := details.Field("severity")
	require.True(t, ok)
	assert.True(t, severity.Required, "required via the object's required list")
	assert.False(t, severity.MultiSelect)
	assert.Equal(t, "driverIncidentDetails.Severity", severity.Enum.Name)

	picture, ok := s.Type("driverVehicle").Field("picture")
	require.True(t, ok)
	assert.Equal(t, types.KindImage, picture.Kind)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		version string
		doc     string
		wantErr error
	}{
		{
			name:    "version is not a uuid",
			version: "not-a-uuid",
			doc:     testhelpers.SchemaJSON,
			wantErr: types.ErrInvalidSchemaID,
		},
		{
			name:    "dangling reference",
			version: testhelpers.SchemaVersion,
			doc:     `{"properties": {"Person": {"$ref": "#/definitions/missing"}}, "definitions": {}}`,
			wantErr: types.ErrUnknownType,
		},
		{
			name:    "properties is not an object",
			version: testhelpers.SchemaVersion,
			doc:     `{"properties": []}`,
			wantErr: types.ErrTypeMismatch,
		},
		{
			name:    "malformed json",
			version: testhelpers.SchemaVersion,
			doc:     `{"properties": `,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := schema.Parse(tt.version, []byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, s)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestParseWithoutOrdering(t *testing.T) {
	doc := `{"properties": {"B field": {"type": "string", "fieldType": "text"}, "A": {"type": "string", "fieldType": "text"}}}`
	s, err := schema.Parse(testhelpers.SchemaVersion, []byte(doc))
	require.NoError(t, err)

	root := s.RootType()
	assert.Nil(t, root.Ordering)
	require.Len(t, root.Fields, 2)
	assert.Equal(t, "bField", root.Fields[0].ID)
	assert.Equal(t, "a", root.Fields[1].ID)
}

func TestParseDuplicateIdentifiers(t *testing.T) {
	doc := `{"properties": {"Plate number": {"fieldType": "text"}, "Plate-number": {"fieldType": "text"}}}`
	s, err := schema.Parse(testhelpers.SchemaVersion, []byte(doc))
	require.NoError(t, err)

	root := s.RootType()
	assert.Equal(t, "plateNumber", root.Fields[0].ID)
	assert.Equal(t, "plateNumber2", root.Fields[1].ID)
}

func TestParseArrayOfSectionReferences(t *testing.T) {
	doc := `{
		"properties": {
			"Witness": {"type": "array", "items": {"$ref": "#/definitions/driverWitness"}, "isRequired": true}
		},
		"definitions": {
			"driverWitness": {
				"type": "object",
				"title": "Witness",
				"plural_title": "Witnesses",
				"properties": {"Name": {"type": "string", "fieldType": "text"}}
			}
		}
	}`
	s, err := schema.Parse(testhelpers.SchemaVersion, []byte(doc))
	require.NoError(t, err)

	witness, ok := s.RootType().Field("witness")
	require.True(t, ok)
	assert.True(t, witness.IsSection())
	assert.Equal(t, "driverWitness", witness.ItemType)
	assert.True(t, witness.Multiple, "array of references is a multiple section")
	assert.True(t, witness.Required)
	assert.Equal(t, "Witnesses", witness.PluralTitle)
}

func TestParseArrayOfMissingSection(t *testing.T) {
	doc := `{"properties": {"Witness": {"type": "array", "items": {"$ref": "#/definitions/missing"}}}}`
	_, err := schema.Parse(testhelpers.SchemaVersion, []byte(doc))
	assert.ErrorIs(t, err, types.ErrUnknownType)
}

func TestParseWarnsOnUnclassifiedProperty(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	doc := `{"properties": {"Notes": {"type": "object"}, "Name": {"fieldType": "text"}}}`
	s, err := schema.Parse(testhelpers.SchemaVersion, []byte(doc))
	require.NoError(t, err)

	notes, ok := s.RootType().Field("notes")
	require.True(t, ok)
	assert.Equal(t, types.KindNone, notes.Kind)
	assert.Contains(t, buf.String(), "property is neither a leaf nor a section")
	assert.Contains(t, buf.String(), "property=Notes")
	assert.NotContains(t, buf.String(), "property=Name")
}

func TestParseIdentifiers(t *testing.T) {
	doc := `{"properties": {
		"_localId": {"options": {"hidden": true}},
		"Main cause / factor": {"fieldType": "text"},
		"Vehicle 2": {"fieldType": "text"},
		"???": {"fieldType": "text"}
	}}`
	s, err := schema.Parse(testhelpers.SchemaVersion, []byte(doc))
	require.NoError(t, err)

	var ids []string
	for _, f := range s.RootType().Fields {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{types.LocalIDField, "mainCauseFactor", "vehicle2", "field"}, ids)
}
