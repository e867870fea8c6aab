/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/schema"
	"github.com/suparena/typedmodels/storagemodels"
)

// Record is an instance of a typed hierarchy. It always holds the root's merged set of fields;
// its class is a tag that recast swaps in place and that decides visibility and behavior.
type Record struct {
	class    *Node
	values   map[string]any
	deferred map[string]struct{}
	db       string
	adding   bool
}

// ConstructOption configures Construct.
type ConstructOption func(*constructOptions)

type constructOptions struct {
	suppressRecast bool
}

// SuppressRecast keeps the record on the constructing class instead of resolving its type.
func SuppressRecast() ConstructOption {
	return func(o *constructOptions) {
		o.suppressRecast = true
	}
}

// Construct builds a record against the root's merged fields. Positional values fill the merged
// fields in storage order, named values are applied on top, defaults fill the rest. The record
// is then recast unless SuppressRecast is given.
func (n *Node) Construct(positional []any, named map[string]any, opts ...ConstructOption) (*Record, error) {
	o := &constructOptions{}
	for _, opt := range opts {
		opt(o)
	}

	fields := n.h.schema.Fields()
	if len(positional) > len(fields) {
		return nil, errors.NewTooManyFieldValuesError(n.name, len(positional), len(fields))
	}

	r := &Record{
		class:    n,
		values:   make(map[string]any, len(fields)),
		deferred: make(map[string]struct{}),
		adding:   true,
	}
	assigned := make(map[string]struct{}, len(positional)+len(named))
	for i, v := range positional {
		if err := r.assign(fields[i], v); err != nil {
			return nil, err
		}
		assigned[fields[i].Name] = struct{}{}
	}
	for name, v := range named {
		f, ok := n.h.schema.Field(name)
		if !ok {
			return nil, errors.NewFieldDoesNotExistError(n.name, name)
		}
		if _, dup := assigned[name]; dup {
			return nil, errors.NewValidationError(name, "got multiple values")
		}
		if err := r.assign(f, v); err != nil {
			return nil, err
		}
		assigned[name] = struct{}{}
	}
	for _, f := range fields {
		if _, ok := assigned[f.Name]; ok {
			continue
		}
		if err := r.assign(f, f.DefaultValue()); err != nil {
			return nil, err
		}
	}

	if !o.suppressRecast {
		if err := r.Recast(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// New constructs a record from named values.
func (n *Node) New(named map[string]any) (*Record, error) {
	return n.Construct(nil, named)
}

// FromRow materializes a stored row. When the row was fetched without its type column the
// record is not recast and stays an instance of n; resolving its real class would need another
// round trip. Columns missing from a partial fetch are recorded as deferred.
func (n *Node) FromRow(row storagemodels.Row, db string) (*Record, error) {
	fields := n.h.schema.Fields()
	r := &Record{
		class:    n,
		values:   make(map[string]any, len(fields)),
		deferred: make(map[string]struct{}),
		db:       db,
	}
	for _, f := range fields {
		if !row.HasField(f.Name) {
			r.deferred[f.Name] = struct{}{}
			continue
		}
		v, ok := row.Values[f.Name]
		if !ok {
			v = f.DefaultValue()
		}
		if err := r.assign(f, v); err != nil {
			return nil, err
		}
	}
	if row.ID != "" {
		r.values[IDField] = row.ID
		delete(r.deferred, IDField)
	}

	if row.HasField(TypeField) {
		if err := r.Recast(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Record) assign(f *schema.Field, v any) error {
	cv, err := f.Coerce(v)
	if err != nil {
		return err
	}
	r.values[f.Name] = cv
	delete(r.deferred, f.Name)
	return nil
}

// Recast resolves the record's class from its type. An untyped record of a class with its own
// discriminator takes that discriminator; any other untyped record is left alone and is caught
// by CheckSave instead.
func (r *Record) Recast() error {
	return r.recast(nil, "")
}

// RecastTo sets the record's type to discriminator and swaps its class accordingly.
func (r *Record) RecastTo(discriminator string) error {
	if discriminator == "" {
		root := r.rootName()
		return errors.NewInvalidDiscriminatorError(root, discriminator)
	}
	return r.recast(nil, discriminator)
}

// RecastToNode recasts the record to class n, which must be a registered class of the record's
// hierarchy.
func (r *Record) RecastToNode(n *Node) error {
	if n == nil {
		return errors.NewInvalidDiscriminatorError(r.rootName(), "<nil>")
	}
	return r.recast(n, "")
}

func (r *Record) recast(target *Node, discriminator string) error {
	if r.class == nil {
		return errors.NewNoRegistryFoundError("Record")
	}
	if r.Type() == "" {
		if d := r.class.Discriminator(); d != "" {
			r.values[TypeField] = d
		} else if target == nil && discriminator == "" {
			return nil
		}
	}

	h := r.class.h
	if h == nil || h.registry == nil {
		return errors.NewNoRegistryFoundError(r.class.name)
	}
	root := h.root

	typ := discriminator
	switch {
	case target != nil:
		if target.h != h || target.Discriminator() == "" {
			return errors.NewInvalidDiscriminatorError(root.name, target.QualifiedName())
		}
		typ = target.Discriminator()
	case typ == "":
		typ = r.Type()
	}

	cls, err := h.registry.Resolve(typ)
	if err != nil {
		return errors.NewInvalidDiscriminatorError(root.name, typ)
	}

	r.values[TypeField] = typ
	delete(r.deferred, TypeField)
	if r.class != cls {
		h.logger.Debug("recast record",
			zap.String("id", r.ID()),
			zap.String("from", r.class.name),
			zap.String("to", cls.name))
		r.class = cls
	}
	return nil
}

func (r *Record) rootName() string {
	if r.class == nil {
		return "Record"
	}
	return r.class.Root().name
}

// CheckSave guards persistence: a record without a type is never saved.
func (r *Record) CheckSave() error {
	if r.Type() == "" {
		name := "Record"
		if r.class != nil {
			name = r.class.name
		}
		return errors.NewUntypedSaveError(name)
	}
	return nil
}

// Class returns the record's current class.
func (r *Record) Class() *Node { return r.class }

// Type returns the discriminator stored in the type column.
func (r *Record) Type() string {
	s, _ := r.values[TypeField].(string)
	return s
}

// ID returns the primary key, empty for records that were never saved.
func (r *Record) ID() string {
	s, _ := r.values[IDField].(string)
	return s
}

// DB returns the alias of the store the record was loaded from or saved to.
func (r *Record) DB() string { return r.db }

// IsNew reports whether the record has not been saved or loaded yet.
func (r *Record) IsNew() bool { return r.adding }

// Behavior returns the behavior of the record's class.
func (r *Record) Behavior() any {
	if r.class == nil {
		return nil
	}
	return r.class.Behavior()
}

// BehaviorAs returns the record's behavior as B.
func BehaviorAs[B any](r *Record) (B, bool) {
	b, ok := r.Behavior().(B)
	return b, ok
}

// Get returns the value of a field of the merged schema.
func (r *Record) Get(name string) (any, error) {
	if _, ok := r.class.h.schema.Field(name); !ok {
		return nil, errors.NewFieldDoesNotExistError(r.class.name, name)
	}
	if _, ok := r.deferred[name]; ok {
		return nil, errors.NewDeferredFieldError(r.class.name, name)
	}
	return r.values[name], nil
}

// Value is Get without the error; unknown and deferred fields read as nil.
func (r *Record) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// Set assigns a coerced value. Setting the type does not recast; call Recast for that.
func (r *Record) Set(name string, v any) error {
	f, ok := r.class.h.schema.Field(name)
	if !ok {
		return errors.NewFieldDoesNotExistError(r.class.name, name)
	}
	return r.assign(f, v)
}

// AddRelated adds keys to a many-to-many field, skipping keys already present.
func (r *Record) AddRelated(name string, keys ...string) error {
	f, ok := r.class.h.schema.Field(name)
	if !ok {
		return errors.NewFieldDoesNotExistError(r.class.name, name)
	}
	if !f.IsMultiValued() {
		return errors.NewValidationError(name, "not a many-to-many field")
	}
	if _, ok := r.deferred[name]; ok {
		return errors.NewDeferredFieldError(r.class.name, name)
	}
	current, _ := r.values[name].([]string)
	seen := make(map[string]struct{}, len(current))
	for _, k := range current {
		seen[k] = struct{}{}
	}
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		current = append(current, k)
	}
	r.values[name] = current
	return nil
}

// Deferred returns the names of fields that were not fetched, sorted.
func (r *Record) Deferred() []string {
	out := make([]string, 0, len(r.deferred))
	for name := range r.deferred {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Values returns the values of the fields visible on the record's class, deferred ones left out.
func (r *Record) Values() map[string]any {
	out := make(map[string]any)
	for _, f := range r.class.Fields() {
		if _, ok := r.deferred[f.Name]; !ok {
			out[f.Name] = r.values[f.Name]
		}
	}
	for _, f := range r.class.ManyToMany() {
		if _, ok := r.deferred[f.Name]; !ok {
			out[f.Name] = r.values[f.Name]
		}
	}
	return out
}

// Row returns the storable row of every non-deferred field of the merged schema.
func (r *Record) Row() storagemodels.Row {
	values := make(map[string]any, len(r.values))
	for _, f := range r.class.h.schema.Fields() {
		if _, ok := r.deferred[f.Name]; ok {
			continue
		}
		values[f.Name] = f.Storable(r.values[f.Name])
	}
	return storagemodels.Row{ID: r.ID(), Values: values}
}

func (r *Record) String() string {
	if r.class == nil {
		return "Record"
	}
	return fmt.Sprintf("%s(%s)", r.class.name, r.ID())
}

// load copies the columns of a freshly fetched row into deferred fields.
func (r *Record) load(row storagemodels.Row) error {
	for _, name := range r.Deferred() {
		f, ok := r.class.h.schema.Field(name)
		if !ok {
			continue
		}
		v, present := row.Values[name]
		if !present {
			v = f.DefaultValue()
		}
		if err := r.assign(f, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) saved(db string) {
	r.adding = false
	r.db = db
}
