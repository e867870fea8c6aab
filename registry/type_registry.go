/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"github.com/suparena/typedmodels/errors"
)

// Registry maps discriminator strings to the classes of one typed hierarchy and keeps, for
// every tracked class, the ordered discriminators of its subtree.
//
// A Registry is filled while the hierarchy is declared, which must happen sequentially during
// startup. After that it is only read and may be shared between goroutines without locking.
type Registry[T comparable] struct {
	keys     []string
	classes  map[string]T
	subtrees map[T][]string
	names    func(T) string
}

// New creates an empty Registry. names renders a class for error messages.
func New[T comparable](names func(T) string) *Registry[T] {
	return &Registry[T]{
		classes:  make(map[string]T),
		subtrees: make(map[T][]string),
		names:    names,
	}
}

// Register maps discriminator to class. The class starts tracking its own subtree and the
// discriminator is appended to the subtree of every tracked ancestor.
// Registering an existing discriminator for another class fails with DuplicateRegistrationError.
func (r *Registry[T]) Register(discriminator string, class T, ancestors ...T) error {
	if existing, ok := r.classes[discriminator]; ok {
		if existing == class {
			return nil
		}
		return errors.NewDuplicateRegistrationError(discriminator, r.name(class), r.name(existing))
	}
	r.keys = append(r.keys, discriminator)
	r.classes[discriminator] = class
	r.subtrees[class] = append(r.subtrees[class], discriminator)
	r.propagate(discriminator, ancestors)
	return nil
}

// Track starts subtree tracking for a class that carries no discriminator of its own,
// such as an abstract intermediate class.
func (r *Registry[T]) Track(class T) {
	if _, ok := r.subtrees[class]; !ok {
		r.subtrees[class] = []string{}
	}
}

// Tracked reports whether class has subtree tracking.
func (r *Registry[T]) Tracked(class T) bool {
	_, ok := r.subtrees[class]
	return ok
}

func (r *Registry[T]) propagate(discriminator string, ancestors []T) {
	for _, a := range ancestors {
		if sub, ok := r.subtrees[a]; ok {
			r.subtrees[a] = append(sub, discriminator)
		}
	}
}

// Resolve returns the class registered for discriminator.
func (r *Registry[T]) Resolve(discriminator string) (T, error) {
	class, ok := r.classes[discriminator]
	if !ok {
		var zero T
		return zero, errors.NewUnknownDiscriminatorError(discriminator)
	}
	return class, nil
}

// Has reports whether discriminator is registered.
func (r *Registry[T]) Has(discriminator string) bool {
	_, ok := r.classes[discriminator]
	return ok
}

// Keys returns every registered discriminator in registration order.
func (r *Registry[T]) Keys() []string {
	return append([]string(nil), r.keys...)
}

// SubtreeFor returns the discriminators of class and everything declared below it.
func (r *Registry[T]) SubtreeFor(class T) []string {
	return append([]string(nil), r.subtrees[class]...)
}

// Classes maps discriminators to their classes, skipping unknown ones.
func (r *Registry[T]) Classes(discriminators []string) []T {
	out := make([]T, 0, len(discriminators))
	for _, d := range discriminators {
		if c, ok := r.classes[d]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered discriminators.
func (r *Registry[T]) Len() int {
	return len(r.keys)
}

func (r *Registry[T]) name(class T) string {
	if r.names == nil {
		return "class"
	}
	return r.names(class)
}
