/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"

	"github.com/suparena/typedmodels/errors"
)

// Schema is the merged storage schema of a typed hierarchy: the root's own fields plus every
// field contributed by a subclass, all stored in one table.
type Schema struct {
	table          string
	fields         []*Field
	byName         map[string]*Field
	own            map[string]struct{}
	fromSubclasses map[string]*Field
}

// New creates a schema for table whose own fields are fields, in order.
func New(table string, fields ...*Field) (*Schema, error) {
	s := &Schema{
		table:          table,
		byName:         make(map[string]*Field, len(fields)),
		own:            make(map[string]struct{}, len(fields)),
		fromSubclasses: make(map[string]*Field),
	}
	for _, f := range fields {
		if _, exists := s.byName[f.Name]; exists {
			return nil, fmt.Errorf("schema %s: field %q declared twice", table, f.Name)
		}
		s.fields = append(s.fields, f)
		s.byName[f.Name] = f
		s.own[f.Name] = struct{}{}
	}
	return s, nil
}

// Table returns the physical table name.
func (s *Schema) Table() string {
	return s.table
}

// Fields returns all fields in storage order.
func (s *Schema) Fields() []*Field {
	return append([]*Field(nil), s.fields...)
}

// Len returns the number of merged fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// OwnFields returns the fields declared on the root.
func (s *Schema) OwnFields() []*Field {
	out := make([]*Field, 0, len(s.own))
	for _, f := range s.fields {
		if s.IsOwn(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// IsOwn reports whether name is one of the root's own fields.
func (s *Schema) IsOwn(name string) bool {
	_, ok := s.own[name]
	return ok
}

// FromSubclasses returns the fields contributed by subclasses keyed by name.
func (s *Schema) FromSubclasses() map[string]*Field {
	out := make(map[string]*Field, len(s.fromSubclasses))
	for k, v := range s.fromSubclasses {
		out[k] = v
	}
	return out
}

// Check validates that owner may contribute f. An equivalent field of the same name is a
// harmless duplicate; a different definition is a FieldConflictError.
func (s *Schema) Check(owner string, f *Field) (duplicate bool, err error) {
	existing, ok := s.byName[f.Name]
	if !ok {
		return false, nil
	}
	if existing.Equivalent(f) {
		return true, nil
	}
	return false, errors.NewFieldConflictError(f.Name, owner, existing.Owner)
}

// Contribute attaches f, declared by owner, to the schema. It returns false when an
// equivalent field was already present.
func (s *Schema) Contribute(owner string, f *Field) (bool, error) {
	dup, err := s.Check(owner, f)
	if err != nil || dup {
		return false, err
	}
	f.Owner = owner
	s.fields = append(s.fields, f)
	s.byName[f.Name] = f
	s.fromSubclasses[f.Name] = f
	return true, nil
}

// AddChoice appends a choice to the named field.
func (s *Schema) AddChoice(field string, c Choice) error {
	f, ok := s.byName[field]
	if !ok {
		return errors.NewFieldDoesNotExistError(s.table, field)
	}
	f.Choices = append(f.Choices, c)
	return nil
}
