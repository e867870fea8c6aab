/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sync"
)

// IndexMapRegistry associates a table with its key templates (PK, SK, GSI keys).

var (
	indexMapRegistry = make(map[string]map[string]string)
	mu               sync.RWMutex
)

// DefaultIndexMap is used for tables without a registered index map. All rows of a hierarchy
// share one partition, which is what lets the typed managers narrow by discriminator.
var DefaultIndexMap = map[string]string{
	"PK": "MODEL#{table}",
	"SK": "ID#{id}",
}

// RegisterIndexMap associates table with the given index map.
func RegisterIndexMap(table string, idxMap map[string]string) {
	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[table] = idxMap
}

// GetIndexMap retrieves the index map for table, if any.
func GetIndexMap(table string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[table]
	return m, ok
}

// IndexMapFor returns the registered index map for table or DefaultIndexMap.
func IndexMapFor(table string) map[string]string {
	if m, ok := GetIndexMap(table); ok {
		return m
	}
	return DefaultIndexMap
}
