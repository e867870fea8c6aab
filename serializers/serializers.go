/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package serializers

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

// Object is the serialized form of a record. Model always names the root of the record's
// hierarchy; the concrete class travels in the "type" field.
type Object struct {
	Model  string         `json:"model" yaml:"model"`
	PK     string         `json:"pk" yaml:"pk"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

type codec struct {
	encode func(io.Writer, []Object) error
	decode func(io.Reader) ([]Object, error)
}

var codecs = map[string]codec{
	"json": {
		encode: func(w io.Writer, objs []Object) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(objs)
		},
		decode: func(r io.Reader) ([]Object, error) {
			var objs []Object
			err := json.NewDecoder(r).Decode(&objs)
			return objs, err
		},
	},
	"yaml": {
		encode: func(w io.Writer, objs []Object) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(objs); err != nil {
				return err
			}
			return enc.Close()
		},
		decode: func(r io.Reader) ([]Object, error) {
			var objs []Object
			err := yaml.NewDecoder(r).Decode(&objs)
			if err == io.EOF {
				err = nil
			}
			return objs, err
		},
	},
}

// Formats lists the supported formats.
func Formats() []string {
	out := make([]string, 0, len(codecs))
	for name := range codecs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lookup(format string) (codec, error) {
	c, ok := codecs[format]
	if !ok {
		return codec{}, errors.NewValidationError("format", fmt.Sprintf("unsupported serialization format %q", format))
	}
	return c, nil
}

// ToObject returns the serialized form of r. Deferred fields are left out.
func ToObject(r *typedmodels.Record) Object {
	row := r.Row()
	fields := make(map[string]any, len(row.Values))
	for name, v := range row.Values {
		if name != typedmodels.IDField {
			fields[name] = v
		}
	}
	return Object{
		Model:  r.Class().Root().QualifiedName(),
		PK:     r.ID(),
		Fields: fields,
	}
}

// Serialize writes records to w in format.
func Serialize(w io.Writer, format string, records []*typedmodels.Record) error {
	c, err := lookup(format)
	if err != nil {
		return err
	}
	objs := make([]Object, len(records))
	for i, r := range records {
		objs[i] = ToObject(r)
	}
	if err := c.encode(w, objs); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// FromObject rebuilds a record through the root of the hierarchy named by obj.Model, so the
// record is recast to the class its type names.
func FromObject(catalog *typedmodels.Catalog, obj Object) (*typedmodels.Record, error) {
	n, ok := catalog.Lookup(obj.Model)
	if !ok {
		return nil, errors.NewValidationError("model", fmt.Sprintf("unknown model %q", obj.Model))
	}
	values := make(map[string]any, len(obj.Fields)+1)
	for k, v := range obj.Fields {
		values[k] = v
	}
	values[typedmodels.IDField] = obj.PK
	return n.Root().FromRow(storagemodels.Row{ID: obj.PK, Values: values}, typedmodels.DefaultDB)
}

// Deserialize reads records in format from r.
func Deserialize(r io.Reader, format string, catalog *typedmodels.Catalog) ([]*typedmodels.Record, error) {
	c, err := lookup(format)
	if err != nil {
		return nil, err
	}
	objs, err := c.decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	records := make([]*typedmodels.Record, 0, len(objs))
	for i, obj := range objs {
		rec, err := FromObject(catalog, obj)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
