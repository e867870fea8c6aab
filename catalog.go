/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/suparena/typedmodels/datastore"
)

// Catalog keeps the hierarchies of an application and the stores they use. Relations declared
// in one hierarchy resolve classes of the others through it.
type Catalog struct {
	mu          sync.RWMutex
	hierarchies map[string]*Hierarchy
	stores      map[string]datastore.DataStore
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		hierarchies: make(map[string]*Hierarchy),
		stores:      make(map[string]datastore.DataStore),
	}
}

// NewHierarchy declares a hierarchy root and registers it in the catalog.
func (c *Catalog) NewHierarchy(app, name string, opts ...Option) (*Hierarchy, error) {
	key := app + "." + name
	c.mu.RLock()
	_, exists := c.hierarchies[key]
	c.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("hierarchy %q already registered", key)
	}

	h, err := newHierarchy(c, app, name, opts...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.hierarchies[key] = h
	return h, nil
}

// Hierarchy returns the hierarchy whose root is "app.Name".
func (c *Catalog) Hierarchy(name string) (*Hierarchy, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.hierarchies[name]
	return h, ok
}

// Hierarchies returns every hierarchy sorted by root name.
func (c *Catalog) Hierarchies() []*Hierarchy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.hierarchies))
	for k := range c.hierarchies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Hierarchy, len(keys))
	for i, k := range keys {
		out[i] = c.hierarchies[k]
	}
	return out
}

// Lookup finds a class by "app.Name" or, when unambiguous, by its bare name.
func (c *Catalog) Lookup(model string) (*Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if app, name, ok := strings.Cut(model, "."); ok {
		for _, h := range c.hierarchies {
			if h.app != app {
				continue
			}
			if n, ok := h.byName[name]; ok {
				return n, true
			}
		}
		return nil, false
	}

	var found *Node
	for _, h := range c.hierarchies {
		if n, ok := h.byName[model]; ok {
			if found != nil {
				return nil, false
			}
			found = n
		}
	}
	return found, found != nil
}

// RegisterDataStore registers a store under alias.
func (c *Catalog) RegisterDataStore(alias string, ds datastore.DataStore) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.stores[alias]; exists {
		return fmt.Errorf("datastore with key %q already registered", alias)
	}
	c.stores[alias] = ds
	return nil
}

// GetDataStore retrieves the store registered under alias.
func (c *Catalog) GetDataStore(alias string) (datastore.DataStore, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds, exists := c.stores[alias]
	if !exists {
		return nil, fmt.Errorf("datastore with key %q not found", alias)
	}
	return ds, nil
}
