/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/suparena/typedmodels/datastore"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/registry"
	"github.com/suparena/typedmodels/schema"
)

// TypeField is the name of the discriminator column.
const TypeField = "type"

// IDField is the name of the primary key column.
const IDField = "id"

// Hierarchy is one typed root together with every class declared below it. All classes share
// the root's table and its merged schema.
//
// Declarations mutate the hierarchy without locking. They must all happen sequentially during
// startup; afterwards the hierarchy is read-only and safe for concurrent use.
type Hierarchy struct {
	app      string
	root     *Node
	schema   *schema.Schema
	registry *registry.Registry[*Node]
	nodes    []*Node
	byName   map[string]*Node
	logger   *zap.Logger
	store    datastore.DataStore
	scope    Scope
	catalog  *Catalog

	// reverse relations pointing at classes of this hierarchy
	reverse []reverseRelation
	// relation fields, from any hierarchy, whose choices follow a class of this hierarchy
	limits []relationLimit
}

type reverseRelation struct {
	field  *schema.Field
	target *Node
}

type relationLimit struct {
	field  *schema.Field
	target *Node
}

// NewHierarchy declares the root class name of a new typed hierarchy. The root owns the table,
// the "id" primary key and the "type" discriminator, followed by the fields given WithFields.
func NewHierarchy(app, name string, opts ...Option) (*Hierarchy, error) {
	return newHierarchy(nil, app, name, opts...)
}

func newHierarchy(c *Catalog, app, name string, opts ...Option) (*Hierarchy, error) {
	if app == "" || name == "" {
		return nil, errors.NewValidationError("name", "hierarchy needs an app and a root name")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.abstract || o.proxy {
		return nil, errors.NewValidationError("options", "the root of a hierarchy cannot be abstract or a proxy")
	}

	table := o.table
	if table == "" {
		table = strings.ToLower(app + "_" + name)
	}
	namespace := o.namespace
	if namespace == "" {
		namespace = app
	}

	own := []*schema.Field{
		{Name: IDField, Type: schema.TypeString, MaxLength: 255, Primary: true, Unique: true},
		{Name: TypeField, Type: schema.TypeString, MaxLength: 255, Index: true, Choices: []schema.Choice{}},
	}
	for _, f := range o.fields {
		own = append(own, f.Clone())
	}
	for _, f := range own {
		f.Owner = name
	}
	s, err := schema.New(table, own...)
	if err != nil {
		return nil, errors.NewValidationError("fields", err.Error())
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hierarchy{
		app:     app,
		schema:  s,
		byName:  make(map[string]*Node),
		logger:  logger,
		store:   o.store,
		scope:   o.scope,
		catalog: c,
	}
	h.registry = registry.New(func(n *Node) string { return n.name })

	root := &Node{
		h:         h,
		name:      name,
		label:     verboseName(name, o.verboseName),
		namespace: namespace,
		behavior:  o.behavior,
		declared:  make(map[string]struct{}),
	}
	h.root = root
	h.nodes = append(h.nodes, root)
	h.byName[name] = root

	for _, f := range s.OwnFields() {
		if f.IsRelation() {
			h.wireRelation(root, f, h.retarget(root, f))
		}
	}

	logger.Debug("declared typed root",
		zap.String("class", name),
		zap.String("table", table),
		zap.Int("fields", s.Len()))
	return h, nil
}

// App returns the application label of the hierarchy.
func (h *Hierarchy) App() string { return h.app }

// Root returns the root class.
func (h *Hierarchy) Root() *Node { return h.root }

// Schema returns the merged schema.
func (h *Hierarchy) Schema() *schema.Schema { return h.schema }

// Table returns the physical table shared by all classes.
func (h *Hierarchy) Table() string { return h.schema.Table() }

// Registry returns the discriminator registry.
func (h *Hierarchy) Registry() *registry.Registry[*Node] { return h.registry }

// Logger returns the hierarchy logger.
func (h *Hierarchy) Logger() *zap.Logger { return h.logger }

// DataStore returns the default store, or nil.
func (h *Hierarchy) DataStore() datastore.DataStore { return h.store }

// SetDataStore replaces the default store used by Node.Objects.
func (h *Hierarchy) SetDataStore(ds datastore.DataStore) { h.store = ds }

// Nodes returns every class in declaration order, root first.
func (h *Hierarchy) Nodes() []*Node {
	return append([]*Node(nil), h.nodes...)
}

// Node looks a class up by name.
func (h *Hierarchy) Node(name string) (*Node, bool) {
	n, ok := h.byName[name]
	return n, ok
}

// MustDeclare is like Declare but panics on error. Declaration errors are programming errors
// in the hierarchy definition.
func (h *Hierarchy) MustDeclare(name string, parent *Node, opts ...Option) *Node {
	n, err := h.Declare(name, parent, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// Declare adds class name below parent (the root when nil). Its fields are merged into the
// root's schema, its discriminator is registered and propagated to every ancestor, and all
// scoped field caches of the hierarchy are invalidated. Nothing is changed when it fails.
func (h *Hierarchy) Declare(name string, parent *Node, opts ...Option) (*Node, error) {
	if parent == nil {
		parent = h.root
	}
	if parent.h != h {
		return nil, errors.NewValidationError("parent", fmt.Sprintf("%s is not part of the %s hierarchy", parent.name, h.root.name))
	}
	if name == "" {
		return nil, errors.NewValidationError("name", "class name is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if opt := o.rootOnly(); opt != "" {
		return nil, errors.NewValidationError("options", opt+" applies to the hierarchy root only")
	}

	namespace := o.namespace
	if namespace == "" {
		namespace = h.root.namespace
	}
	n := &Node{
		h:         h,
		name:      name,
		label:     verboseName(name, o.verboseName),
		namespace: namespace,
		parent:    parent,
		behavior:  o.behavior,
		abstract:  o.abstract,
		proxy:     o.proxy,
		declared:  make(map[string]struct{}),
	}
	if !n.abstract && !n.proxy {
		n.discriminator = namespace + "." + strings.ToLower(name)
	}

	if existing, ok := h.byName[name]; ok {
		d := n.discriminator
		if d == "" {
			d = name
		}
		return nil, errors.NewDuplicateRegistrationError(d, name, existing.name)
	}

	if n.proxy {
		if len(o.fields) > 0 {
			return nil, errors.NewFieldConflictError(o.fields[0].Name, name, parent.name)
		}
		h.attach(n)
		h.logger.Debug("declared proxy", zap.String("class", name), zap.String("parent", parent.name))
		return n, nil
	}

	if n.discriminator != "" {
		if existing, err := h.registry.Resolve(n.discriminator); err == nil {
			return nil, errors.NewDuplicateRegistrationError(n.discriminator, name, existing.name)
		}
	}

	accepted, err := h.validateFields(n, o.fields)
	if err != nil {
		return nil, err
	}

	// validation is complete; from here on the declaration cannot fail
	ancestors := n.strictAncestors()
	if n.discriminator != "" {
		if err := h.registry.Register(n.discriminator, n, ancestors...); err != nil {
			return nil, err
		}
	} else {
		h.registry.Track(n)
	}
	h.attach(n)

	var added []string
	for _, p := range accepted {
		n.declared[p.field.Name] = struct{}{}
		ok, err := h.schema.Contribute(name, p.field)
		if err != nil {
			return nil, err
		}
		if ok {
			added = append(added, p.field.Name)
			if p.field.IsRelation() {
				h.wireRelation(n, p.field, p.target)
			}
		}
	}

	if n.discriminator != "" {
		if err := h.schema.AddChoice(TypeField, schema.Choice{Value: n.discriminator, Label: n.label}); err != nil {
			return nil, err
		}
	}

	h.refreshLimits()
	h.invalidate()

	h.logger.Debug("declared typed class",
		zap.String("class", name),
		zap.String("parent", parent.name),
		zap.String("discriminator", n.discriminator),
		zap.Strings("fields", added))
	return n, nil
}

func (h *Hierarchy) attach(n *Node) {
	h.nodes = append(h.nodes, n)
	h.byName[n.name] = n
	n.parent.children = append(n.parent.children, n)
}

type pendingField struct {
	field  *schema.Field
	target *Node
}

// validateFields checks every declared field before anything is mutated and returns the copies
// that will be contributed.
func (h *Hierarchy) validateFields(n *Node, fields []*schema.Field) ([]pendingField, error) {
	seen := make(map[string]struct{}, len(fields))
	accepted := make([]pendingField, 0, len(fields))
	for _, decl := range fields {
		f := decl.Clone()
		f.Owner = n.name
		if _, dup := seen[f.Name]; dup {
			return nil, errors.NewFieldConflictError(f.Name, n.name, n.name)
		}
		seen[f.Name] = struct{}{}

		if !f.AcceptsAbsent() {
			return nil, errors.NewNullabilityConstraintError(f.Name, n.name)
		}
		var target *Node
		if f.IsRelation() {
			target = h.retarget(n, f)
		}
		if _, err := h.schema.Check(n.name, f); err != nil {
			return nil, err
		}
		accepted = append(accepted, pendingField{field: f, target: target})
	}
	return accepted, nil
}

// retarget points a relation at the root of a typed target and narrows its choices to the
// target's subtree. The narrowing is advisory. It returns the typed target, if any.
func (h *Hierarchy) retarget(n *Node, f *schema.Field) *Node {
	target := h.resolveRelated(n, f.Related)
	if target == nil {
		return nil
	}
	f.Related = target.Root().QualifiedName()
	if !target.IsRoot() {
		f.LimitChoicesTo = target.Types()
	}
	return target
}

// wireRelation records the reverse side of relation f declared by n on its target hierarchy.
func (h *Hierarchy) wireRelation(n *Node, f *schema.Field, target *Node) {
	if target == nil || f.Type == schema.TypeReverseRelation || f.Private {
		return
	}
	th := target.h
	th.reverse = append(th.reverse, reverseRelation{
		field: &schema.Field{
			Name:        f.AccessorName(),
			Type:        schema.TypeReverseRelation,
			Null:        true,
			Related:     n.QualifiedName(),
			RelatedName: f.Name,
			Owner:       target.name,
		},
		target: target,
	})
	if !target.IsRoot() {
		th.limits = append(th.limits, relationLimit{field: f, target: target})
	}
	th.invalidate()
}

// resolveRelated finds the class a relation points at: "self", a class of this hierarchy, or
// a class known to the catalog. Non-typed targets resolve to nil.
func (h *Hierarchy) resolveRelated(n *Node, related string) *Node {
	switch {
	case related == "":
		return nil
	case related == "self":
		return n
	}
	if t, ok := h.byName[related]; ok {
		return t
	}
	if t, ok := h.byName[strings.TrimPrefix(related, h.app+".")]; ok {
		return t
	}
	if h.catalog != nil {
		if t, ok := h.catalog.Lookup(related); ok {
			return t
		}
	}
	return nil
}

// refreshLimits keeps relation choices in step with the subtrees they follow.
func (h *Hierarchy) refreshLimits() {
	for _, l := range h.limits {
		l.field.LimitChoicesTo = l.target.Types()
	}
}

func (h *Hierarchy) invalidate() {
	for _, n := range h.nodes {
		n.invalidate()
	}
}

// verboseName turns CamelCase into lower case words: "AngryBigCat" becomes "angry big cat".
func verboseName(name, override string) string {
	if override != "" {
		return override
	}
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
