package types

import "slices"

// FieldKind classifies a leaf field for form building. The empty kind marks a
// field that is not a leaf, which in practice is a nested section.
type FieldKind string

// Field kinds understood by the form engine.
const (
	KindNone       FieldKind = ""
	KindText       FieldKind = "text"
	KindSelectList FieldKind = "selectlist"
	KindReference  FieldKind = "reference"
	KindImage      FieldKind = "image"
	KindHidden     FieldKind = "hidden"
)

// validKinds is the set of recognized leaf kinds.
var validKinds = map[FieldKind]bool{
	KindText:       true,
	KindSelectList: true,
	KindReference:  true,
	KindImage:      true,
	KindHidden:     true,
}

// IsValidKind reports whether k names a leaf field kind.
func IsValidKind(k FieldKind) bool {
	return validKinds[k]
}

// LocalIDField is the identifier of the implicit hidden field every section
// item carries. It is excluded from field-count consistency checks.
const LocalIDField = "_localId"

// EnumType is the set of display values a select list accepts.
type EnumType struct {
	Name   string   // Owning type and field, for diagnostics.
	Values []string // Display values in declared order.
}

// FromDisplay resolves a display value to its enum constant.
func (e *EnumType) FromDisplay(display string) (string, bool) {
	if e == nil {
		return "", false
	}
	if slices.Contains(e.Values, display) {
		return display, true
	}
	return "", false
}

// FieldDescriptor is the static description of one field of a section type.
type FieldDescriptor struct {
	ID          string    // Field identifier.
	DisplayName string    // Wire and display name; empty means ID is used.
	Kind        FieldKind // Leaf kind, KindNone for nested sections.
	Required    bool
	Multiple    bool   // Nested section holds a list of items.
	Title       string // Singular display title of a nested section.
	PluralTitle string // Plural display title of a nested section.
	Enum        *EnumType
	MultiSelect bool   // Select list holds a set of enum values.
	ItemType    string // Section type name of a nested section.
	Target      string // Section name a reference field points into.
}

// Name returns the display name, falling back to the identifier.
func (f FieldDescriptor) Name() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.ID
}

// IsSection reports whether the field holds a nested section rather than a
// leaf value.
func (f FieldDescriptor) IsSection() bool {
	return f.Kind == KindNone && f.ItemType != ""
}

// TypeDescriptor describes one section type: the record root or the item type
// of a section.
type TypeDescriptor struct {
	Name     string
	Fields   []FieldDescriptor // Declaration order.
	Ordering []string          // Authoritative order in display names; nil when absent.
}

// Field returns the descriptor of the field with the given identifier.
func (t *TypeDescriptor) Field(id string) (FieldDescriptor, bool) {
	if t == nil {
		return FieldDescriptor{}, false
	}
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// RecordSchema is the immutable description of one server-defined record
// layout. It is produced once per schema version and shared read-only.
type RecordSchema struct {
	Version string // Schema UUID.
	Root    string // Type name of the record root.
	Types   map[string]*TypeDescriptor
}

// Type returns the descriptor registered under name, or nil.
func (s *RecordSchema) Type(name string) *TypeDescriptor {
	if s == nil {
		return nil
	}
	return s.Types[name]
}

// RootType returns the descriptor of the record root.
func (s *RecordSchema) RootType() *TypeDescriptor {
	return s.Type(s.Root)
}

// NewRecord creates an empty record root for this schema.
func (s *RecordSchema) NewRecord() *Item {
	return NewItem(s.Root)
}
