package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/form"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// assignment is one --set or --image argument: section[.index].field=value.
// index is -1 for singular sections.
type assignment struct {
	section string
	index   int
	field   string
	value   string
}

func parseAssignment(arg string) (assignment, error) {
	path, value, ok := strings.Cut(arg, "=")
	if !ok {
		return assignment{}, fmt.Errorf("%q: expected section[.index].field=value", arg)
	}
	parts := strings.Split(path, ".")
	switch len(parts) {
	case 2:
		return assignment{section: parts[0], index: -1, field: parts[1], value: value}, nil
	case 3:
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			return assignment{}, fmt.Errorf("%q: list index must be a non-negative number", arg)
		}
		return assignment{section: parts[0], index: idx, field: parts[2], value: value}, nil
	default:
		return assignment{}, fmt.Errorf("%q: expected section[.index].field=value", arg)
	}
}

// removal is one --remove argument: section.index.
type removal struct {
	section string
	index   int
}

func parseRemoval(arg string) (removal, error) {
	section, idx, ok := strings.Cut(arg, ".")
	if !ok || section == "" {
		return removal{}, fmt.Errorf("%q: expected section.index", arg)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return removal{}, fmt.Errorf("%q: list index must be a non-negative number", arg)
	}
	return removal{section: section, index: n}, nil
}

// editor applies assignments to a record through the navigator.
type editor struct {
	schema types.SchemaProvider
	nav    *form.Navigator
	images types.ImageStore
}

// target resolves the item an assignment writes to, creating the section or
// list item when needed. Index len(list) appends a new item.
func (e *editor) target(record *types.Item, a assignment) (*types.Item, types.FieldDescriptor, error) {
	var item *types.Item
	if a.index < 0 {
		item = e.nav.GetOrCreateObject(record, a.section)
	} else {
		item = e.nav.GetOrCreateListItem(record, a.section, a.index)
	}
	if item == nil {
		if a.index < 0 {
			return nil, types.FieldDescriptor{}, fmt.Errorf("%s is not a single-object section", a.section)
		}
		return nil, types.FieldDescriptor{}, fmt.Errorf("%s has no item %d", a.section, a.index)
	}
	f, ok := e.schema.Type(item.Type).Field(a.field)
	if !ok {
		return nil, types.FieldDescriptor{}, fmt.Errorf("%s has no field %s", a.section, a.field)
	}
	return item, f, nil
}

// set stores a text, select list or reference value.
func (e *editor) set(record *types.Item, a assignment) error {
	item, f, err := e.target(record, a)
	if err != nil {
		return err
	}
	v, err := leafValue(f, a.value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", a.section, a.field, err)
	}
	item.Set(f.ID, v)
	return nil
}

// setImage stores the file at a.value through the image store and records
// the stored path.
func (e *editor) setImage(ctx context.Context, record *types.Item, a assignment) error {
	item, f, err := e.target(record, a)
	if err != nil {
		return err
	}
	if f.Kind != types.KindImage {
		return fmt.Errorf("%s.%s is not an image field", a.section, a.field)
	}
	raw, err := os.ReadFile(a.value)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	path, err := e.images.Store(ctx, raw)
	if err != nil {
		return sysError{fmt.Errorf("store image: %w", err)}
	}
	item.Set(f.ID, types.Image(path))
	return nil
}

// remove deletes list items. Indices refer to the lists as they were before
// any removal, so items are deleted from the highest index down.
func (e *editor) remove(record *types.Item, rs []removal) error {
	rs = slices.Clone(rs)
	slices.SortStableFunc(rs, func(a, b removal) int { return b.index - a.index })
	for i, r := range rs {
		if i > 0 && rs[i-1] == r {
			continue
		}
		if !e.nav.DeleteListItem(record, r.section, r.index) {
			return fmt.Errorf("%s has no item %d", r.section, r.index)
		}
	}
	return nil
}

// leafValue converts command-line text to the value kind of f. Multi-select
// values are comma separated.
func leafValue(f types.FieldDescriptor, text string) (types.Value, error) {
	switch f.Kind {
	case types.KindText:
		return types.Text(text), nil
	case types.KindReference:
		return types.Reference(text), nil
	case types.KindSelectList:
		if !f.MultiSelect {
			v, ok := f.Enum.FromDisplay(text)
			if !ok {
				return nil, fmt.Errorf("%w: %q", types.ErrUnknownEnumValue, text)
			}
			return types.Choice(v), nil
		}
		set := types.NewChoiceSet()
		for _, part := range strings.Split(text, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, ok := f.Enum.FromDisplay(part)
			if !ok {
				return nil, fmt.Errorf("%w: %q", types.ErrUnknownEnumValue, part)
			}
			set.Add(v)
		}
		return set, nil
	case types.KindImage:
		return nil, fmt.Errorf("image fields are set with --image")
	case types.KindHidden:
		return nil, fmt.Errorf("hidden fields cannot be set")
	default:
		return nil, fmt.Errorf("%w: not a value field", types.ErrTypeMismatch)
	}
}
