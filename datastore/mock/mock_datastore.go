/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the DataStore interface for testing
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

// DataStore is an in-memory datastore.DataStore. Rows are kept per table in insertion order.
type DataStore struct {
	mu          sync.RWMutex
	tables      map[string]map[string]storagemodels.Row
	seq         map[string]int64
	next        int64
	queryFunc   func(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error)
	putError    error
	deleteError error
	queryError  error
	queries     []*storagemodels.Query
}

// New creates a new mock DataStore
func New() *DataStore {
	return &DataStore{
		tables: make(map[string]map[string]storagemodels.Row),
		seq:    make(map[string]int64),
	}
}

// WithQueryFunc sets a custom query function for testing
func (m *DataStore) WithQueryFunc(f func(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error)) *DataStore {
	m.queryFunc = f
	return m
}

// WithPutError makes Put operations return an error
func (m *DataStore) WithPutError(err error) *DataStore {
	m.putError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore) WithDeleteError(err error) *DataStore {
	m.deleteError = err
	return m
}

// WithQueryError makes Query operations return an error
func (m *DataStore) WithQueryError(err error) *DataStore {
	m.queryError = err
	return m
}

// GetOne retrieves a row by id
func (m *DataStore) GetOne(ctx context.Context, table, id string) (*storagemodels.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if row, exists := m.tables[table][id]; exists {
		cp := row.Project(nil)
		return &cp, nil
	}
	return nil, errors.NewNotFoundError(table, id)
}

// Put stores a row
func (m *DataStore) Put(ctx context.Context, table string, row storagemodels.Row) error {
	if m.putError != nil {
		return m.putError
	}
	if row.ID == "" {
		return errors.NewValidationError("id", "row has no id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		t = make(map[string]storagemodels.Row)
		m.tables[table] = t
	}
	key := table + "|" + row.ID
	if _, exists := t[row.ID]; !exists {
		m.next++
		m.seq[key] = m.next
	}
	stored := row.Project(nil)
	stored.Values["id"] = row.ID
	t[row.ID] = stored
	return nil
}

// Query filters, sorts, pages and projects the rows of q.Table
func (m *DataStore) Query(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q.Clone())
	m.mu.Unlock()

	if m.queryError != nil {
		return nil, m.queryError
	}
	if m.queryFunc != nil {
		return m.queryFunc(ctx, q)
	}

	return storagemodels.Apply(q, m.Rows(q.Table)), nil
}

// Delete removes a row by id
func (m *DataStore) Delete(ctx context.Context, table, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tables[table][id]; !exists {
		return errors.NewNotFoundError(table, id)
	}
	delete(m.tables[table], id)
	delete(m.seq, table+"|"+id)
	return nil
}

// Helper methods for testing

// Rows returns copies of the rows of table in insertion order.
func (m *DataStore) Rows(table string) []storagemodels.Row {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]storagemodels.Row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		rows = append(rows, r.Project(nil))
	}
	sort.Slice(rows, func(i, j int) bool {
		return m.seq[table+"|"+rows[i].ID] < m.seq[table+"|"+rows[j].ID]
	})
	return rows
}

// SetData replaces the rows of table (for testing)
func (m *DataStore) SetData(table string, rows []storagemodels.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := make(map[string]storagemodels.Row, len(rows))
	for _, r := range rows {
		m.next++
		m.seq[table+"|"+r.ID] = m.next
		stored := r.Project(nil)
		stored.Values["id"] = r.ID
		t[r.ID] = stored
	}
	m.tables[table] = t
}

// GetData returns a copy of the rows of table keyed by id (for testing)
func (m *DataStore) GetData(table string) map[string]storagemodels.Row {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]storagemodels.Row, len(m.tables[table]))
	for k, v := range m.tables[table] {
		result[k] = v.Project(nil)
	}
	return result
}

// Queries returns the queries received so far.
func (m *DataStore) Queries() []*storagemodels.Query {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*storagemodels.Query(nil), m.queries...)
}

// Count returns the number of stored rows across all tables
func (m *DataStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, t := range m.tables {
		n += len(t)
	}
	return n
}

// Clear removes all data
func (m *DataStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = make(map[string]map[string]storagemodels.Row)
	m.seq = make(map[string]int64)
	m.queries = nil
}
