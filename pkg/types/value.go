package types

import (
	"maps"
	"slices"
	"strings"
)

// Value is a field value in the record graph. The concrete types are Text,
// Choice, ChoiceSet, Reference, Image, Hidden, *Item and *List.
type Value interface {
	isValue()
}

// Text is a free text value.
type Text string

// Choice is a single select-list value holding a display value.
type Choice string

// Reference holds the local id of an item in another section.
type Reference string

// Image holds the path of a stored image.
type Image string

// Hidden holds a hidden identifier such as an item's local id.
type Hidden string

// ChoiceSet is a set of select-list display values. Duplicates collapse.
type ChoiceSet struct {
	values map[string]struct{}
}

// NewChoiceSet returns a set containing the given display values.
func NewChoiceSet(values ...string) ChoiceSet {
	s := ChoiceSet{values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.values[v] = struct{}{}
	}
	return s
}

// Add inserts a display value.
func (s *ChoiceSet) Add(v string) {
	if s.values == nil {
		s.values = make(map[string]struct{})
	}
	s.values[v] = struct{}{}
}

// Contains reports whether v is in the set.
func (s ChoiceSet) Contains(v string) bool {
	_, ok := s.values[v]
	return ok
}

// Len returns the number of distinct values.
func (s ChoiceSet) Len() int {
	return len(s.values)
}

// Values returns the members in sorted order.
func (s ChoiceSet) Values() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// Item is one instance of a section type: the record root, the object of a
// singular section, or an element of a list section.
type Item struct {
	Type   string
	Fields map[string]Value
}

// NewItem returns an empty item of the given type.
func NewItem(typeName string) *Item {
	return &Item{Type: typeName, Fields: make(map[string]Value)}
}

// Get returns the value of a field, or nil when unset.
func (it *Item) Get(field string) Value {
	if it == nil {
		return nil
	}
	return it.Fields[field]
}

// Set stores a value on a field.
func (it *Item) Set(field string, v Value) {
	if it.Fields == nil {
		it.Fields = make(map[string]Value)
	}
	it.Fields[field] = v
}

// List is the value of a list section. Items keep insertion order, which is
// the order presented to the user and used for label numbering.
type List struct {
	Type  string
	Items []*Item
}

// NewList returns an empty list of items of the given type.
func NewList(itemType string) *List {
	return &List{Type: itemType}
}

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func (Text) isValue()      {}
func (Choice) isValue()    {}
func (ChoiceSet) isValue() {}
func (Reference) isValue() {}
func (Image) isValue()     {}
func (Hidden) isValue()    {}
func (*Item) isValue()     {}
func (*List) isValue()     {}

// String returns a display form of a leaf value. Sections render empty.
func String(v Value) string {
	switch v := v.(type) {
	case Text:
		return string(v)
	case Choice:
		return string(v)
	case Reference:
		return string(v)
	case Image:
		return string(v)
	case Hidden:
		return string(v)
	case ChoiceSet:
		return strings.Join(v.Values(), ", ")
	default:
		return ""
	}
}
