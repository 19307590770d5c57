package schema

import (
	"log/slog"
	"sync"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// FieldOrderDescriptor is the ordered, read-only metadata of one section
// type. It is computed once per type and cached for the process lifetime.
type FieldOrderDescriptor struct {
	Type   string
	Names  []string // Field identifiers in display order.
	Fields map[string]types.FieldDescriptor
}

// Field returns the descriptor of an ordered field.
func (d *FieldOrderDescriptor) Field(id string) (types.FieldDescriptor, bool) {
	if d == nil {
		return types.FieldDescriptor{}, false
	}
	f, ok := d.Fields[id]
	return f, ok
}

// Reader answers field metadata questions about the types of one schema. Use
// one Reader per schema version; the cache is keyed by type name.
// Malformed metadata degrades to logged warnings and fallbacks; a form built
// from a partially broken schema is preferred over no form at all.
type Reader struct {
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*FieldOrderDescriptor
}

// NewReader creates a Reader with an empty descriptor cache.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{
		logger: logger.With(slog.String("component", "schema.Reader")),
		cache:  make(map[string]*FieldOrderDescriptor),
	}
}

// FieldOrder returns the field identifiers of t in their declared display
// order. Without ordering metadata it falls back to declaration order.
func (r *Reader) FieldOrder(t *types.TypeDescriptor) []string {
	d := r.Descriptor(t)
	if d == nil {
		return nil
	}
	return d.Names
}

// Descriptor returns the cached FieldOrderDescriptor of t, computing it on
// first use. A nil type yields nil.
func (r *Reader) Descriptor(t *types.TypeDescriptor) *FieldOrderDescriptor {
	if t == nil {
		r.logger.Warn("no type to read field order from")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.cache[t.Name]; ok {
		return d
	}
	d := r.buildDescriptor(t)
	r.cache[t.Name] = d
	return d
}

func (r *Reader) buildDescriptor(t *types.TypeDescriptor) *FieldOrderDescriptor {
	d := &FieldOrderDescriptor{
		Type:   t.Name,
		Fields: make(map[string]types.FieldDescriptor, len(t.Fields)),
	}
	nameMap := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		d.Fields[f.ID] = f
		nameMap[f.Name()] = f.ID
	}

	if t.Ordering == nil {
		r.logger.Warn("type has no field ordering, using declaration order", slog.String("type", t.Name))
		for _, f := range t.Fields {
			d.Names = append(d.Names, f.ID)
		}
		return d
	}

	seen := make(map[string]bool, len(t.Ordering))
	for _, display := range t.Ordering {
		id, ok := nameMap[display]
		if !ok {
			r.logger.Warn("ordered field is not declared on type",
				slog.String("type", t.Name), slog.String("field", display))
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		d.Names = append(d.Names, id)
	}

	expected := len(t.Fields)
	if _, ok := d.Fields[types.LocalIDField]; ok {
		expected--
	}
	if len(d.Names) != len(t.Ordering) || len(d.Names) != expected {
		r.logger.Warn("field order does not match the type's fields",
			slog.String("type", t.Name),
			slog.Int("ordered", len(d.Names)),
			slog.Int("ordering_length", len(t.Ordering)),
			slog.Int("fields", expected))
	}
	return d
}

// Label returns the display label of a field.
func (r *Reader) Label(f types.FieldDescriptor) string {
	return f.Name()
}

// Kind returns the leaf kind of a field. KindNone means the field is not a
// leaf (typically a nested section) and form building skips it.
func (r *Reader) Kind(f types.FieldDescriptor) types.FieldKind {
	if !types.IsValidKind(f.Kind) {
		return types.KindNone
	}
	return f.Kind
}

// IsRequired reports whether the field carries a required constraint.
func (r *Reader) IsRequired(f types.FieldDescriptor) bool {
	return f.Required
}

// PluralTitle returns the declared plural title of a section field or def.
func (r *Reader) PluralTitle(f types.FieldDescriptor, def string) string {
	if f.PluralTitle != "" {
		return f.PluralTitle
	}
	r.logger.Warn("section has no plural title", slog.String("field", f.ID), slog.String("default", def))
	return def
}

// SingularTitle returns the declared singular title of a section field or def.
func (r *Reader) SingularTitle(f types.FieldDescriptor, def string) string {
	if f.Title != "" {
		return f.Title
	}
	r.logger.Warn("section has no title", slog.String("field", f.ID), slog.String("default", def))
	return def
}
