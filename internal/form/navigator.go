// Package form resolves record sections for step-by-step editing and keeps
// the record graph in shape while the user moves between sections and list
// items. Nothing here panics on missing data: the graph is partially filled
// most of the time, so absent sections, unset fields and bad indices degrade
// to a logged message and a nil, false or empty result.
package form

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// SectionInfo summarizes one top-level section.
type SectionInfo struct {
	Index       int    `json:"index"`
	Name        string `json:"name"` // Field identifier on the record root.
	Label       string `json:"label"`
	Type        string `json:"type"` // Item type name.
	Multiple    bool   `json:"multiple"`
	HasNext     bool   `json:"has_next"`
	Title       string `json:"title"`
	PluralTitle string `json:"plural_title"`
}

// Navigator maps section indices to record sections and performs the
// get-or-create and delete operations on the record graph. It is used from
// a single editing goroutine and holds no locks of its own.
type Navigator struct {
	schema types.SchemaProvider
	reader *schema.Reader
	logger *slog.Logger
}

// NewNavigator creates a Navigator over the given schema.
func NewNavigator(s types.SchemaProvider, reader *schema.Reader, logger *slog.Logger) *Navigator {
	return &Navigator{
		schema: s,
		reader: reader,
		logger: logger.With(slog.String("component", "form.Navigator")),
	}
}

// SectionCount returns the number of top-level sections.
func (n *Navigator) SectionCount() int {
	return len(n.reader.FieldOrder(n.schema.RootType()))
}

// SectionName returns the field name of section i. The boolean is false
// when i is out of range.
func (n *Navigator) SectionName(i int) (string, bool) {
	order := n.reader.FieldOrder(n.schema.RootType())
	if i < 0 || i >= len(order) {
		n.logger.Warn("section index out of range", slog.Int("index", i), slog.Int("sections", len(order)))
		return "", false
	}
	return order[i], true
}

// HasNext reports whether a section follows section i.
func (n *Navigator) HasNext(i int) bool {
	return i < n.SectionCount()-1
}

// HasMultiple reports whether section i holds a list of items.
func (n *Navigator) HasMultiple(i int) bool {
	name, ok := n.SectionName(i)
	if !ok {
		return false
	}
	f, ok := n.sectionField(name)
	return ok && f.Multiple
}

// SectionType resolves the item type of the section with the given name.
// An unknown name is a navigation inconsistency: it is logged and nil is
// returned so the caller can abort the navigation step.
func (n *Navigator) SectionType(name string) *types.TypeDescriptor {
	f, ok := n.sectionField(name)
	if !ok {
		n.logger.Error("no section with this name", slog.String("section", name))
		return nil
	}
	t := n.schema.Type(f.ItemType)
	if t == nil {
		n.logger.Error("section type is not in the schema",
			slog.String("section", name), slog.String("type", f.ItemType))
	}
	return t
}

// Sections lists the top-level sections in display order.
func (n *Navigator) Sections() []SectionInfo {
	order := n.reader.FieldOrder(n.schema.RootType())
	infos := make([]SectionInfo, 0, len(order))
	for i, name := range order {
		f, ok := n.sectionField(name)
		if !ok {
			continue
		}
		label := n.reader.Label(f)
		infos = append(infos, SectionInfo{
			Index:       i,
			Name:        name,
			Label:       label,
			Type:        f.ItemType,
			Multiple:    f.Multiple,
			HasNext:     i < len(order)-1,
			Title:       n.reader.SingularTitle(f, label),
			PluralTitle: n.reader.PluralTitle(f, label),
		})
	}
	return infos
}

// FormFields returns the visible leaf fields of t in display order. Nested
// sections and hidden identifiers are skipped.
func (n *Navigator) FormFields(t *types.TypeDescriptor) []types.FieldDescriptor {
	d := n.reader.Descriptor(t)
	if d == nil {
		return nil
	}
	var fields []types.FieldDescriptor
	for _, id := range d.Names {
		f, _ := d.Field(id)
		switch n.reader.Kind(f) {
		case types.KindNone, types.KindHidden:
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// GetOrCreateSection returns the value of the section field on owner,
// creating an empty object or list when the field is unset. It returns nil
// when the field cannot be written; the caller should abort the current
// navigation step.
func (n *Navigator) GetOrCreateSection(owner *types.Item, field string) types.Value {
	if owner == nil {
		n.logger.Error("cannot create a section on a missing owner", slog.String("field", field))
		return nil
	}
	f, ok := n.schema.Type(owner.Type).Field(field)
	if !ok || !f.IsSection() {
		n.logger.Error("field is not a section of the owner",
			slog.String("field", field), slog.String("owner", owner.Type))
		return nil
	}

	if existing := owner.Get(field); existing != nil {
		return existing
	}

	var created types.Value
	if f.Multiple {
		created = types.NewList(f.ItemType)
	} else {
		created = n.newItem(f.ItemType)
	}
	owner.Set(field, created)

	if owner.Get(field) != created {
		n.logger.Error("section was not stored on its owner",
			slog.String("field", field), slog.String("owner", owner.Type))
		return nil
	}
	return created
}

// GetOrCreateObject is GetOrCreateSection for singular sections.
func (n *Navigator) GetOrCreateObject(owner *types.Item, field string) *types.Item {
	v := n.GetOrCreateSection(owner, field)
	if v == nil {
		return nil
	}
	it, ok := v.(*types.Item)
	if !ok {
		n.logger.Error("section does not hold a single object", slog.String("field", field))
		return nil
	}
	return it
}

// GetOrCreateList is GetOrCreateSection for list sections.
func (n *Navigator) GetOrCreateList(owner *types.Item, field string) *types.List {
	v := n.GetOrCreateSection(owner, field)
	if v == nil {
		return nil
	}
	l, ok := v.(*types.List)
	if !ok {
		n.logger.Error("section does not hold a list", slog.String("field", field))
		return nil
	}
	return l
}

// GetOrCreateListItem returns the item at index in the list held by field,
// creating the list if needed. An index equal to the list length appends a
// new item; this is how both "add" and "edit" reach an item. A negative
// index or one past the end is logged and yields nil.
func (n *Navigator) GetOrCreateListItem(owner *types.Item, field string, index int) *types.Item {
	l := n.GetOrCreateList(owner, field)
	if l == nil {
		return nil
	}
	switch {
	case index >= 0 && index < len(l.Items):
		return l.Items[index]
	case index == len(l.Items):
		it := n.newItem(l.Type)
		l.Items = append(l.Items, it)
		return it
	default:
		n.logger.Warn("list index out of range",
			slog.String("field", field), slog.Int("index", index), slog.Int("size", len(l.Items)))
		return nil
	}
}

// DeleteListItem removes the item at index from the list held by field.
// Later items shift down by one. It reports false, leaving the list
// untouched, when there is no such item.
func (n *Navigator) DeleteListItem(owner *types.Item, field string, index int) bool {
	l, ok := owner.Get(field).(*types.List)
	if !ok {
		n.logger.Warn("no list to delete from", slog.String("field", field))
		return false
	}
	if index < 0 || index >= len(l.Items) {
		n.logger.Warn("list index out of range",
			slog.String("field", field), slog.Int("index", index), slog.Int("size", len(l.Items)))
		return false
	}
	l.Items = slices.Delete(l.Items, index, index+1)
	return true
}

// SectionItemList returns the items of a list section value. An unset value
// yields an empty list; a value that is not a list is a type mismatch, which
// is logged and also yields an empty list.
func (n *Navigator) SectionItemList(v types.Value) []*types.Item {
	switch v := v.(type) {
	case nil:
		return []*types.Item{}
	case *types.List:
		if v == nil {
			return []*types.Item{}
		}
		return v.Items
	default:
		n.logger.Error("section value is not a list", slog.String("value_type", fmt.Sprintf("%T", v)))
		return []*types.Item{}
	}
}

func (n *Navigator) sectionField(name string) (types.FieldDescriptor, bool) {
	f, ok := n.schema.RootType().Field(name)
	if !ok || !f.IsSection() {
		return types.FieldDescriptor{}, false
	}
	return f, true
}

// newItem creates an item and gives it a fresh local id when its type
// declares one, so references from other sections can point at it.
func (n *Navigator) newItem(typeName string) *types.Item {
	it := types.NewItem(typeName)
	if _, ok := n.schema.Type(typeName).Field(types.LocalIDField); ok {
		it.Set(types.LocalIDField, types.Hidden(uuid.NewString()))
	}
	return it
}
