// Package schema turns the server's JSON Schema for a record type into the
// static RecordSchema description and reads per-type field metadata from it:
// declared order, labels, kinds, required flags and section titles.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// RootTypeName is the type name given to the record root.
const RootTypeName = "Record"

const definitionPrefix = "#/definitions/"

// documentJSON is the subset of a record schema document the engine reads.
// Unknown members are ignored.
type documentJSON struct {
	Title       string                  `json:"title"`
	Properties  json.RawMessage         `json:"properties"`
	Definitions map[string]*sectionJSON `json:"definitions"`
}

// sectionJSON is one entry of the definitions map.
type sectionJSON struct {
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	PluralTitle string          `json:"plural_title"`
	Multiple    bool            `json:"multiple"`
	Required    []string        `json:"required"`
	Properties  json.RawMessage `json:"properties"`
	Items       *sectionJSON    `json:"items"`
}

// propertyJSON is one entry of a properties object.
type propertyJSON struct {
	Ref           string        `json:"$ref"`
	Type          string        `json:"type"`
	FieldType     string        `json:"fieldType"`
	Format        string        `json:"format"`
	Enum          []string      `json:"enum"`
	Items         *propertyJSON `json:"items"`
	IsRequired    bool          `json:"isRequired"`
	PropertyOrder *int          `json:"propertyOrder"`
	Options       struct {
		Hidden bool `json:"hidden"`
	} `json:"options"`
	Watch struct {
		Target string `json:"target"`
	} `json:"watch"`
}

// namedProperty keeps a property together with its key and position.
type namedProperty struct {
	key string
	raw json.RawMessage
}

// Parse builds a RecordSchema from a schema document. version must be the
// schema UUID; anything else is rejected with ErrInvalidSchemaID.
func Parse(version string, doc []byte) (*types.RecordSchema, error) {
	if _, err := uuid.Parse(version); err != nil {
		return nil, errors.Wrap(types.ErrInvalidSchemaID, "parse schema version", slog.String("version", version))
	}

	var d documentJSON
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, errors.Wrap(err, "decode schema document")
	}

	s := &types.RecordSchema{
		Version: version,
		Root:    RootTypeName,
		Types:   make(map[string]*types.TypeDescriptor),
	}

	for name, def := range d.Definitions {
		if def == nil {
			return nil, errors.New("empty definition", slog.String("definition", name))
		}
		body := def
		if def.Items != nil {
			body = def.Items
		}
		td, err := parseType(name, body.Properties, body.Required, d.Definitions)
		if err != nil {
			return nil, errors.Wrap(err, "parse definition", slog.String("definition", name))
		}
		s.Types[name] = td
	}

	if _, ok := s.Types[RootTypeName]; ok {
		return nil, errors.New("definition shadows the record root", slog.String("definition", RootTypeName))
	}
	root, err := parseType(RootTypeName, d.Properties, nil, d.Definitions)
	if err != nil {
		return nil, errors.Wrap(err, "parse record properties")
	}
	s.Types[RootTypeName] = root

	return s, nil
}

// parseType converts a properties object into a TypeDescriptor. Fields keep
// document order; Ordering follows propertyOrder and is nil when no property
// declares one.
func parseType(
	name string,
	rawProps json.RawMessage,
	required []string,
	defs map[string]*sectionJSON,
) (*types.TypeDescriptor, error) {
	props, err := orderedProperties(rawProps)
	if err != nil {
		return nil, err
	}

	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}

	td := &types.TypeDescriptor{Name: name}
	used := make(map[string]bool, len(props))

	type ordered struct {
		order   int
		pos     int
		display string
	}
	var order []ordered

	for pos, np := range props {
		var p propertyJSON
		if err := json.Unmarshal(np.raw, &p); err != nil {
			return nil, errors.Wrap(err, "decode property", slog.String("property", np.key))
		}

		id := uniqueIdentifier(identifier(np.key), used)
		f := types.FieldDescriptor{ID: id}
		if id != np.key {
			f.DisplayName = np.key
		}

		switch {
		case p.Ref != "":
			if f, err = sectionField(f, np.key, p.Ref, defs); err != nil {
				return nil, err
			}
			f.Required = p.IsRequired || requiredSet[np.key]
		case p.Type == "array" && p.Items != nil && p.Items.Ref != "":
			if f, err = sectionField(f, np.key, p.Items.Ref, defs); err != nil {
				return nil, err
			}
			f.Multiple = true
			f.Required = p.IsRequired || requiredSet[np.key]
		default:
			f = leafField(f, name, np.key, p, requiredSet[np.key])
			if f.Kind == types.KindNone {
				slog.Warn("property is neither a leaf nor a section",
					slog.String("type", name), slog.String("property", np.key))
			}
		}

		td.Fields = append(td.Fields, f)
		if p.PropertyOrder != nil {
			order = append(order, ordered{order: *p.PropertyOrder, pos: pos, display: f.Name()})
		}
	}

	if len(order) > 0 {
		sort.SliceStable(order, func(i, j int) bool {
			if order[i].order != order[j].order {
				return order[i].order < order[j].order
			}
			return order[i].pos < order[j].pos
		})
		td.Ordering = make([]string, len(order))
		for i, o := range order {
			td.Ordering[i] = o.display
		}
	}

	return td, nil
}

// sectionField points f at the definition named by ref.
func sectionField(f types.FieldDescriptor, key, ref string, defs map[string]*sectionJSON) (types.FieldDescriptor, error) {
	defName := strings.TrimPrefix(ref, definitionPrefix)
	def, ok := defs[defName]
	if !ok || def == nil || defName == ref {
		return f, errors.Wrap(types.ErrUnknownType, "resolve section reference",
			slog.String("property", key), slog.String("ref", ref))
	}
	f.ItemType = defName
	f.Multiple = def.Multiple
	f.Title = def.Title
	f.PluralTitle = def.PluralTitle
	return f, nil
}

// leafField fills in the metadata of a non-section property.
func leafField(f types.FieldDescriptor, typeName, key string, p propertyJSON, required bool) types.FieldDescriptor {
	f.Required = p.IsRequired || required

	switch {
	case p.Options.Hidden:
		f.Kind = types.KindHidden
	case types.IsValidKind(types.FieldKind(p.FieldType)):
		f.Kind = types.FieldKind(p.FieldType)
	default:
		f.Kind = types.KindNone
	}

	switch f.Kind {
	case types.KindSelectList:
		enumName := typeName + "." + key
		if len(p.Enum) > 0 {
			f.Enum = &types.EnumType{Name: enumName, Values: p.Enum}
		} else if p.Items != nil && len(p.Items.Enum) > 0 {
			f.Enum = &types.EnumType{Name: enumName, Values: p.Items.Enum}
			f.MultiSelect = true
		}
		if p.Type == "array" {
			f.MultiSelect = true
		}
	case types.KindReference:
		f.Target = p.Watch.Target
	}
	return f
}

// orderedProperties decodes a properties object keeping document order, which
// a map decode would lose.
func orderedProperties(raw json.RawMessage) ([]namedProperty, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "read properties")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.Wrap(types.ErrTypeMismatch, "properties must be an object")
	}
	var props []namedProperty
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "read property key")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Wrap(types.ErrTypeMismatch, "property key must be a string")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, errors.Wrap(err, "read property", slog.String("property", key))
		}
		props = append(props, namedProperty{key: key, raw: value})
	}
	return props, nil
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// identifier derives a field identifier from a display name. Plain
// identifiers keep their spelling with a lower-case first letter so stored
// keys such as _localId survive; anything else is lower camel-cased from its
// alphanumeric words.
func identifier(display string) string {
	if plainIdentifier.MatchString(display) {
		r := []rune(display)
		r[0] = unicode.ToLower(r[0])
		return string(r)
	}
	words := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, display)
	id := strcase.ToLowerCamel(words)
	if id == "" {
		return "field"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	return id
}

func uniqueIdentifier(id string, used map[string]bool) string {
	candidate := id
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s%d", id, n)
	}
	used[candidate] = true
	return candidate
}
