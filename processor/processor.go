/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package processor

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/registry"
	"github.com/suparena/typedmodels/schema"
)

// File is a declaration file.
type File struct {
	App         string          `yaml:"app"`
	Hierarchies []HierarchyDecl `yaml:"hierarchies"`
}

// HierarchyDecl declares a hierarchy root and its subclasses.
type HierarchyDecl struct {
	Name        string            `yaml:"name"`
	Table       string            `yaml:"table"`
	Namespace   string            `yaml:"namespace"`
	VerboseName string            `yaml:"verbose_name"`
	IndexMap    map[string]string `yaml:"indexmap"`
	Fields      []FieldDecl       `yaml:"fields"`
	Types       []TypeDecl        `yaml:"types"`
}

// TypeDecl declares a subclass and its own subclasses.
type TypeDecl struct {
	Name        string      `yaml:"name"`
	Namespace   string      `yaml:"namespace"`
	VerboseName string      `yaml:"verbose_name"`
	Abstract    bool        `yaml:"abstract"`
	Proxy       bool        `yaml:"proxy"`
	Fields      []FieldDecl `yaml:"fields"`
	Types       []TypeDecl  `yaml:"types"`
}

// FieldDecl declares a field.
type FieldDecl struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Null        bool     `yaml:"null"`
	Default     any      `yaml:"default"`
	MaxLength   int      `yaml:"max_length"`
	Index       bool     `yaml:"index"`
	Unique      bool     `yaml:"unique"`
	Private     bool     `yaml:"private"`
	Related     string   `yaml:"related"`
	RelatedName string   `yaml:"related_name"`
	Choices     []string `yaml:"choices"`
}

// Field converts the declaration into a schema field.
func (d FieldDecl) Field() (*schema.Field, error) {
	if d.Name == "" {
		return nil, errors.NewValidationError("name", "field name is required")
	}
	typ, err := schema.ParseFieldType(d.Type)
	if err != nil {
		return nil, errors.NewValidationError(d.Name, err.Error())
	}
	f := &schema.Field{
		Name:        d.Name,
		Type:        typ,
		Null:        d.Null,
		Default:     d.Default,
		MaxLength:   d.MaxLength,
		Index:       d.Index,
		Unique:      d.Unique,
		Private:     d.Private,
		Related:     d.Related,
		RelatedName: d.RelatedName,
	}
	for _, c := range d.Choices {
		f.Choices = append(f.Choices, schema.Choice{Value: c, Label: c})
	}
	if f.IsRelation() && f.Related == "" {
		return nil, errors.NewValidationError(d.Name, "relation needs a related model")
	}
	return f, nil
}

func fields(decls []FieldDecl) ([]*schema.Field, error) {
	out := make([]*schema.Field, 0, len(decls))
	for _, d := range decls {
		f, err := d.Field()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Load parses a declaration file.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, errors.NewValidationError("", "empty declaration file")
		}
		return nil, fmt.Errorf("parse declarations: %w", err)
	}
	if f.App == "" {
		return nil, errors.NewValidationError("app", "declaration file needs an app")
	}
	return &f, nil
}

// LoadFile parses the declaration file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	f, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Apply declares every hierarchy of the file in catalog. opts are given to every root.
func (f *File) Apply(catalog *typedmodels.Catalog, opts ...typedmodels.Option) ([]*typedmodels.Hierarchy, error) {
	out := make([]*typedmodels.Hierarchy, 0, len(f.Hierarchies))
	for _, hd := range f.Hierarchies {
		h, err := f.applyHierarchy(catalog, hd, opts)
		if err != nil {
			return out, fmt.Errorf("hierarchy %s: %w", hd.Name, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *File) applyHierarchy(catalog *typedmodels.Catalog, hd HierarchyDecl, base []typedmodels.Option) (*typedmodels.Hierarchy, error) {
	own, err := fields(hd.Fields)
	if err != nil {
		return nil, err
	}
	opts := append([]typedmodels.Option{}, base...)
	opts = append(opts, typedmodels.WithFields(own...))
	if hd.Table != "" {
		opts = append(opts, typedmodels.WithTable(hd.Table))
	}
	if hd.Namespace != "" {
		opts = append(opts, typedmodels.WithNamespace(hd.Namespace))
	}
	if hd.VerboseName != "" {
		opts = append(opts, typedmodels.WithVerboseName(hd.VerboseName))
	}

	h, err := catalog.NewHierarchy(f.App, hd.Name, opts...)
	if err != nil {
		return nil, err
	}
	if len(hd.IndexMap) > 0 {
		registry.RegisterIndexMap(h.Table(), hd.IndexMap)
	}
	for _, td := range hd.Types {
		if err := declare(h, h.Root(), td); err != nil {
			return h, err
		}
	}
	return h, nil
}

func declare(h *typedmodels.Hierarchy, parent *typedmodels.Node, td TypeDecl) error {
	own, err := fields(td.Fields)
	if err != nil {
		return fmt.Errorf("%s: %w", td.Name, err)
	}
	var opts []typedmodels.Option
	if len(own) > 0 {
		opts = append(opts, typedmodels.WithFields(own...))
	}
	if td.Namespace != "" {
		opts = append(opts, typedmodels.WithNamespace(td.Namespace))
	}
	if td.VerboseName != "" {
		opts = append(opts, typedmodels.WithVerboseName(td.VerboseName))
	}
	if td.Abstract {
		opts = append(opts, typedmodels.Abstract())
	}
	if td.Proxy {
		opts = append(opts, typedmodels.AsProxy())
	}

	n, err := h.Declare(td.Name, parent, opts...)
	if err != nil {
		return err
	}
	for _, child := range td.Types {
		if err := declare(h, n, child); err != nil {
			return err
		}
	}
	return nil
}
