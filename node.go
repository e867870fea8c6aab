/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

import (
	"sync"
)

// Node is one class of a typed hierarchy. Classes never own storage; a record's class only
// decides which fields are visible, which rows its manager sees and which behavior it has.
type Node struct {
	h             *Hierarchy
	name          string
	label         string
	namespace     string
	discriminator string
	parent        *Node
	children      []*Node
	abstract      bool
	proxy         bool
	behavior      any

	// names of the fields this class declared, duplicates of sibling fields included
	declared map[string]struct{}

	fieldCache sync.Map // FieldQuery -> []*schema.Field
	m2mCache   sync.Map
}

// Name returns the class name.
func (n *Node) Name() string { return n.name }

func (n *Node) String() string { return n.name }

// QualifiedName returns "app.Name".
func (n *Node) QualifiedName() string { return n.h.app + "." + n.name }

// Label returns the human readable name used for the type choice.
func (n *Node) Label() string { return n.label }

// Hierarchy returns the hierarchy the class belongs to.
func (n *Node) Hierarchy() *Hierarchy { return n.h }

// Parent returns the parent class, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the classes declared directly below n.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// Root returns the root of the hierarchy.
func (n *Node) Root() *Node { return n.h.root }

// IsRoot reports whether n is the hierarchy root.
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsAbstract reports whether n was declared without a discriminator.
func (n *Node) IsAbstract() bool { return n.abstract }

// IsProxy reports whether n is a plain view of its parent.
func (n *Node) IsProxy() bool { return n.proxy }

// Discriminator returns the value stored in the type column for records of this class. Proxies
// report their parent's; the root and abstract classes have none.
func (n *Node) Discriminator() string {
	if n.proxy {
		return n.parent.Discriminator()
	}
	return n.discriminator
}

// IsSubclassOf reports whether other is n or one of its ancestors.
func (n *Node) IsSubclassOf(other *Node) bool {
	for c := n; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

// Types returns the discriminators of n's subtree in registration order. For the root these
// are all discriminators of the hierarchy.
func (n *Node) Types() []string {
	switch {
	case n.proxy:
		return n.parent.Types()
	case n.IsRoot():
		return n.h.registry.Keys()
	}
	return n.h.registry.SubtreeFor(n)
}

// TypeClasses returns the classes registered for Types.
func (n *Node) TypeClasses() []*Node {
	return n.h.registry.Classes(n.Types())
}

// Behavior returns the behavior attached to n or to its closest ancestor that has one.
func (n *Node) Behavior() any {
	for c := n; c != nil; c = c.parent {
		if c.behavior != nil {
			return c.behavior
		}
	}
	return nil
}

// strictAncestors returns the ancestors below the root, closest first.
func (n *Node) strictAncestors() []*Node {
	var out []*Node
	for c := n.parent; c != nil && !c.IsRoot(); c = c.parent {
		out = append(out, c)
	}
	return out
}

// declares reports whether n or one of its ancestors declared field name.
func (n *Node) declares(name string) bool {
	for c := n; c != nil; c = c.parent {
		if _, ok := c.declared[name]; ok {
			return true
		}
	}
	return false
}

// overlaps reports whether the subtrees of n and other intersect.
func (n *Node) overlaps(other *Node) bool {
	return n.IsSubclassOf(other) || other.IsSubclassOf(n)
}

func (n *Node) invalidate() {
	n.fieldCache.Clear()
	n.m2mCache.Clear()
}
