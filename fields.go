/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

import (
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/schema"
)

// FieldQuery selects which fields introspection returns besides the plain columns.
type FieldQuery struct {
	// IncludeHidden adds private bookkeeping fields of the root.
	IncludeHidden bool
	// IncludeReverse adds reverse relations pointing at the class.
	IncludeReverse bool
}

// ScopedFields computes the fields visible on n: the root's own fields, fields declared by n or
// one of its ancestors, and optionally private root fields and reverse relations whose target
// overlaps n. Fields of sibling branches are never included even though they share the table.
func ScopedFields(n *Node, q FieldQuery) []*schema.Field {
	s := n.h.schema
	var out []*schema.Field
	for _, f := range s.Fields() {
		if s.IsOwn(f.Name) {
			if !f.Private || q.IncludeHidden {
				out = append(out, f)
			}
			continue
		}
		if n.declares(f.Name) {
			out = append(out, f)
		}
	}
	if q.IncludeReverse {
		for _, r := range n.h.reverse {
			if n.overlaps(r.target) {
				out = append(out, r.field)
			}
		}
	}
	return out
}

// GetFields returns the memoized scoped fields of n for q.
func (n *Node) GetFields(q FieldQuery) []*schema.Field {
	if v, ok := n.fieldCache.Load(q); ok {
		return append([]*schema.Field(nil), v.([]*schema.Field)...)
	}
	v, _ := n.fieldCache.LoadOrStore(q, ScopedFields(n, q))
	return append([]*schema.Field(nil), v.([]*schema.Field)...)
}

// Fields returns the single-valued columns visible on n in storage order.
func (n *Node) Fields() []*schema.Field {
	var out []*schema.Field
	for _, f := range n.GetFields(FieldQuery{}) {
		if f.IsConcrete() {
			out = append(out, f)
		}
	}
	return out
}

// ManyToMany returns the many-to-many relations visible on n.
func (n *Node) ManyToMany() []*schema.Field {
	if v, ok := n.m2mCache.Load(struct{}{}); ok {
		return append([]*schema.Field(nil), v.([]*schema.Field)...)
	}
	var out []*schema.Field
	for _, f := range ScopedFields(n, FieldQuery{}) {
		if f.Type == schema.TypeManyToMany {
			out = append(out, f)
		}
	}
	v, _ := n.m2mCache.LoadOrStore(struct{}{}, out)
	return append([]*schema.Field(nil), v.([]*schema.Field)...)
}

// GetField looks up a field visible on n, hidden fields and reverse relations included.
func (n *Node) GetField(name string) (*schema.Field, error) {
	for _, f := range n.GetFields(FieldQuery{IncludeHidden: true, IncludeReverse: true}) {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, errors.NewFieldDoesNotExistError(n.name, name)
}

// FieldNames returns the names of Fields.
func (n *Node) FieldNames() []string {
	fields := n.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
