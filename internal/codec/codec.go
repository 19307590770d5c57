// Package codec converts record graphs to and from the JSON text stored in
// the local record table and sent to the server. Wire keys are the display
// names the schema declares, so a record decodes back into the same fields
// it was written from.
package codec

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/errors"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// Codec serializes records of one schema.
type Codec struct {
	schema types.SchemaProvider
	logger *slog.Logger
}

// New creates a Codec for the given schema.
func New(s types.SchemaProvider, logger *slog.Logger) *Codec {
	return &Codec{
		schema: s,
		logger: logger.With(slog.String("component", "codec")),
	}
}

// Serialize encodes a record root as JSON. Fields the record's type does not
// declare are dropped.
func (c *Codec) Serialize(record *types.Item) ([]byte, error) {
	if record == nil {
		return nil, errors.Wrap(types.ErrNoRecord, "serialize record")
	}
	obj, err := c.encodeItem(record)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, errors.Wrap(err, "marshal record", slog.String("type", record.Type))
	}
	return data, nil
}

func (c *Codec) encodeItem(it *types.Item) (map[string]any, error) {
	td := c.schema.Type(it.Type)
	if td == nil {
		return nil, errors.Wrap(types.ErrUnknownType, "encode item", slog.String("type", it.Type))
	}

	obj := make(map[string]any, len(it.Fields))
	for id, v := range it.Fields {
		f, ok := td.Field(id)
		if !ok {
			c.logger.Debug("dropping undeclared field", slog.String("type", it.Type), slog.String("field", id))
			continue
		}
		enc, err := c.encodeValue(f, v)
		if err != nil {
			return nil, errors.Wrap(err, "encode field", slog.String("type", it.Type), slog.String("field", id))
		}
		if enc != nil {
			obj[f.Name()] = enc
		}
	}
	return obj, nil
}

func (c *Codec) encodeValue(f types.FieldDescriptor, v types.Value) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case types.ChoiceSet:
		return v.Values(), nil
	case *types.Item:
		if v == nil {
			return nil, nil
		}
		return c.encodeItem(v)
	case *types.List:
		if v == nil {
			return nil, nil
		}
		items := make([]map[string]any, 0, len(v.Items))
		for _, it := range v.Items {
			obj, err := c.encodeItem(it)
			if err != nil {
				return nil, err
			}
			items = append(items, obj)
		}
		return items, nil
	default:
		return types.String(v), nil
	}
}

// Deserialize decodes JSON text into a record root. Malformed JSON, a value
// whose shape does not fit its field, or a select-list set holding a value
// outside its enum is an error and no record is returned. Unknown keys are
// ignored.
func (c *Codec) Deserialize(data []byte) (*types.Item, error) {
	root := c.schema.RootType()
	if root == nil {
		return nil, errors.Wrap(types.ErrUnknownType, "decode record root")
	}
	it, err := c.decodeItem(root, data)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (c *Codec) decodeItem(td *types.TypeDescriptor, data []byte) (*types.Item, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode item", slog.String("type", td.Name))
	}

	byName := make(map[string]types.FieldDescriptor, len(td.Fields))
	for _, f := range td.Fields {
		byName[f.Name()] = f
	}

	it := types.NewItem(td.Name)
	for key, rv := range raw {
		f, ok := byName[key]
		if !ok {
			c.logger.Debug("ignoring unknown key", slog.String("type", td.Name), slog.String("key", key))
			continue
		}
		if isNull(rv) {
			continue
		}
		v, err := c.decodeValue(f, rv)
		if err != nil {
			return nil, errors.Wrap(err, "decode field", slog.String("type", td.Name), slog.String("field", key))
		}
		if v != nil {
			it.Set(f.ID, v)
		}
	}
	return it, nil
}

func (c *Codec) decodeValue(f types.FieldDescriptor, rv json.RawMessage) (types.Value, error) {
	if f.IsSection() {
		return c.decodeSection(f, rv)
	}

	switch f.Kind {
	case types.KindSelectList:
		if f.MultiSelect {
			return decodeChoiceSet(f, rv)
		}
		s, err := decodeString(rv)
		if err != nil {
			return nil, err
		}
		if _, ok := f.Enum.FromDisplay(s); !ok && f.Enum != nil {
			c.logger.Warn("select value is not in its enum",
				slog.String("field", f.ID), slog.String("value", s))
		}
		return types.Choice(s), nil
	case types.KindText:
		s, err := decodeString(rv)
		return types.Text(s), err
	case types.KindReference:
		s, err := decodeString(rv)
		return types.Reference(s), err
	case types.KindImage:
		s, err := decodeString(rv)
		return types.Image(s), err
	case types.KindHidden:
		s, err := decodeString(rv)
		return types.Hidden(s), err
	default:
		c.logger.Debug("ignoring value of a field with no kind", slog.String("field", f.ID))
		return nil, nil
	}
}

func (c *Codec) decodeSection(f types.FieldDescriptor, rv json.RawMessage) (types.Value, error) {
	td := c.schema.Type(f.ItemType)
	if td == nil {
		return nil, errors.Wrap(types.ErrUnknownType, "resolve section type", slog.String("type", f.ItemType))
	}
	if !f.Multiple {
		return c.decodeItem(td, rv)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rv, &elems); err != nil {
		return nil, errors.Wrap(types.ErrTypeMismatch, "list section must be an array")
	}
	l := types.NewList(td.Name)
	for i, e := range elems {
		it, err := c.decodeItem(td, e)
		if err != nil {
			return nil, errors.Wrap(err, "decode list item", slog.Int("index", i))
		}
		l.Items = append(l.Items, it)
	}
	return l, nil
}

// decodeChoiceSet resolves every element through the field's enum. A value
// the enum does not know fails the whole field.
func decodeChoiceSet(f types.FieldDescriptor, rv json.RawMessage) (types.Value, error) {
	var elems []string
	if err := json.Unmarshal(rv, &elems); err != nil {
		return nil, errors.Wrap(types.ErrTypeMismatch, "choice set must be an array of strings")
	}
	set := types.NewChoiceSet()
	for _, display := range elems {
		v, ok := f.Enum.FromDisplay(display)
		if !ok {
			enum := ""
			if f.Enum != nil {
				enum = f.Enum.Name
			}
			return nil, errors.Wrap(types.ErrUnknownEnumValue, "resolve choice",
				slog.String("enum", enum), slog.String("value", display))
		}
		set.Add(v)
	}
	return set, nil
}

func decodeString(rv json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(rv, &s); err != nil {
		return "", errors.Wrap(types.ErrTypeMismatch, "value must be a string")
	}
	return s, nil
}

func isNull(rv json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(rv), []byte("null"))
}
