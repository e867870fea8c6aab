/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

import (
	"go.uber.org/zap"

	"github.com/suparena/typedmodels/datastore"
	"github.com/suparena/typedmodels/schema"
)

// Option configures a hierarchy root or a declared subclass.
type Option func(*options)

type options struct {
	fields      []*schema.Field
	behavior    any
	verboseName string
	namespace   string
	abstract    bool
	proxy       bool

	// root only
	table  string
	logger *zap.Logger
	store  datastore.DataStore
	scope  Scope
}

// Scope customises the default manager of a hierarchy. The discriminator narrowing of the typed
// manager is always applied on top of it.
type Scope func(*Manager) *Manager

// WithFields declares fields on the root or subclass.
func WithFields(fields ...*schema.Field) Option {
	return func(o *options) {
		o.fields = append(o.fields, fields...)
	}
}

// WithBehavior attaches a behavior value to the class. Records dispatch to the behavior of their
// class or of its closest ancestor that has one.
func WithBehavior(b any) Option {
	return func(o *options) {
		o.behavior = b
	}
}

// WithVerboseName sets the human readable label used for the type choice.
func WithVerboseName(name string) Option {
	return func(o *options) {
		o.verboseName = name
	}
}

// WithNamespace overrides the namespace part of the discriminator. On the root it changes the
// default for every subclass.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// Abstract declares an intermediate class without a discriminator of its own.
func Abstract() Option {
	return func(o *options) {
		o.abstract = true
	}
}

// AsProxy declares a plain view of the parent class. It is not registered, contributes no
// fields and resolves to the parent's discriminator.
func AsProxy() Option {
	return func(o *options) {
		o.proxy = true
	}
}

// WithTable overrides the physical table of the hierarchy.
func WithTable(table string) Option {
	return func(o *options) {
		o.table = table
	}
}

// WithLogger sets the logger used by the hierarchy.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDataStore sets the store used by Node.Objects.
func WithDataStore(ds datastore.DataStore) Option {
	return func(o *options) {
		o.store = ds
	}
}

// WithDefaultScope wraps the default manager of every class with scope.
func WithDefaultScope(scope Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

func (o *options) rootOnly() string {
	switch {
	case o.table != "":
		return "WithTable"
	case o.logger != nil:
		return "WithLogger"
	case o.store != nil:
		return "WithDataStore"
	case o.scope != nil:
		return "WithDefaultScope"
	}
	return ""
}
