/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels/datastore"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

// DefaultDB is the alias of a hierarchy's default store.
const DefaultDB = "default"

// Manager queries and persists the records of one class. Every query is narrowed to the
// discriminators of the class's subtree; the root's manager sees every row of the table.
// Managers are immutable: every builder method returns a copy.
type Manager struct {
	node   *Node
	store  datastore.DataStore
	db     string
	query  storagemodels.Query
	fields []string
	err    error
}

// Objects returns the default manager of n, bound to the hierarchy's store and wrapped by the
// hierarchy's default scope.
func (n *Node) Objects() *Manager {
	m := n.Manager(n.h.store)
	if n.h.scope != nil {
		m = n.h.scope(m)
	}
	return m
}

// Manager returns a manager of n bound to store.
func (n *Node) Manager(store datastore.DataStore) *Manager {
	return &Manager{
		node:  n,
		store: store,
		db:    DefaultDB,
		query: storagemodels.Query{Table: n.h.schema.Table()},
	}
}

// Node returns the class the manager serves.
func (m *Manager) Node() *Node { return m.node }

// DB returns the store alias.
func (m *Manager) DB() string { return m.db }

// Err returns the first error recorded while building the query.
func (m *Manager) Err() error { return m.err }

func (m *Manager) clone() *Manager {
	c := *m
	q := m.query.Clone()
	c.query = *q
	c.fields = append([]string(nil), m.fields...)
	return &c
}

func (m *Manager) fail(err error) *Manager {
	c := m.clone()
	if c.err == nil {
		c.err = err
	}
	return c
}

// Using binds the manager to a store registered in the hierarchy's catalog under alias.
func (m *Manager) Using(alias string) *Manager {
	if alias == DefaultDB && m.node.h.store != nil {
		c := m.clone()
		c.store, c.db = m.node.h.store, alias
		return c
	}
	if m.node.h.catalog == nil {
		return m.fail(fmt.Errorf("no catalog to resolve store %q", alias))
	}
	ds, err := m.node.h.catalog.GetDataStore(alias)
	if err != nil {
		return m.fail(err)
	}
	c := m.clone()
	c.store, c.db = ds, alias
	return c
}

// Where adds conditions. Conditions on fields that are not visible on the class are rejected.
func (m *Manager) Where(conds ...storagemodels.Condition) *Manager {
	for _, cond := range conds {
		if err := m.checkColumn(cond.Field); err != nil {
			return m.fail(err)
		}
	}
	c := m.clone()
	c.query.Conditions = append(c.query.Conditions, conds...)
	return c
}

// OrderBy sorts by fields; a leading "-" sorts descending.
func (m *Manager) OrderBy(fields ...string) *Manager {
	orders := make([]storagemodels.Order, 0, len(fields))
	for _, f := range fields {
		o := storagemodels.Order{Field: strings.TrimPrefix(f, "-"), Desc: strings.HasPrefix(f, "-")}
		if err := m.checkColumn(o.Field); err != nil {
			return m.fail(err)
		}
		orders = append(orders, o)
	}
	c := m.clone()
	c.query.OrderBy = append(c.query.OrderBy, orders...)
	return c
}

// Only fetches just the given columns and the primary key. Records fetched without the type
// column stay instances of the manager's class.
func (m *Manager) Only(fields ...string) *Manager {
	for _, f := range fields {
		if err := m.checkColumn(f); err != nil {
			return m.fail(err)
		}
	}
	c := m.clone()
	c.fields = append([]string{}, fields...)
	return c
}

// Defer fetches every column visible on the class except fields.
func (m *Manager) Defer(fields ...string) *Manager {
	skip := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if err := m.checkColumn(f); err != nil {
			return m.fail(err)
		}
		skip[f] = struct{}{}
	}
	var keep []string
	for _, f := range m.node.Fields() {
		if _, ok := skip[f.Name]; !ok {
			keep = append(keep, f.Name)
		}
	}
	for _, f := range m.node.ManyToMany() {
		if _, ok := skip[f.Name]; !ok {
			keep = append(keep, f.Name)
		}
	}
	c := m.clone()
	c.fields = keep
	return c
}

// Limit caps the number of rows.
func (m *Manager) Limit(n int) *Manager {
	c := m.clone()
	c.query.Limit = n
	return c
}

// Offset skips rows.
func (m *Manager) Offset(n int) *Manager {
	c := m.clone()
	c.query.Offset = n
	return c
}

func (m *Manager) checkColumn(name string) error {
	f, err := m.node.GetField(name)
	if err != nil {
		return err
	}
	if !f.IsConcrete() {
		return errors.NewValidationError(name, "only single-valued columns can be filtered, ordered or selected")
	}
	return nil
}

// Narrowing returns the discriminator condition of the class, or nil for the root.
func (m *Manager) Narrowing() *storagemodels.Condition {
	n := m.node
	for n.proxy {
		n = n.parent
	}
	if n.IsRoot() {
		return nil
	}
	types := n.Types()
	var cond storagemodels.Condition
	if len(types) == 1 {
		cond = storagemodels.Eq(TypeField, types[0])
	} else {
		cond = storagemodels.In(TypeField, types...)
	}
	return &cond
}

// Query returns the backend query the manager runs.
func (m *Manager) Query() *storagemodels.Query {
	q := m.query.Clone()
	if cond := m.Narrowing(); cond != nil {
		q.Conditions = append([]storagemodels.Condition{*cond}, q.Conditions...)
	}
	if m.fields != nil {
		q.Fields = append([]string{}, m.fields...)
	}
	return q
}

func (m *Manager) ready() error {
	if m.err != nil {
		return m.err
	}
	if m.store == nil {
		return fmt.Errorf("%s: no datastore configured", m.node.name)
	}
	return nil
}

func (m *Manager) materialize(row storagemodels.Row) (*Record, error) {
	return m.node.FromRow(row, m.db)
}

// All runs the query and materializes every row.
func (m *Manager) All(ctx context.Context) ([]*Record, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	rows, err := m.store.Query(ctx, m.Query())
	if err != nil {
		m.node.h.logger.Warn("query failed", zap.String("class", m.node.name), zap.Error(err))
		return nil, fmt.Errorf("query %s: %w", m.node.name, err)
	}
	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		r, err := m.materialize(row)
		if err != nil {
			return nil, fmt.Errorf("materialize %s %q: %w", m.node.name, row.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// First returns the first matching record, or a NotFoundError.
func (m *Manager) First(ctx context.Context) (*Record, error) {
	records, err := m.Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewNotFoundError(m.node.name, "")
	}
	return records[0], nil
}

// Get loads the record with primary key id. Rows outside the class's subtree, or not matching
// the manager's conditions, are reported as not found.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	row, err := m.store.GetOne(ctx, m.node.h.schema.Table(), id)
	if err != nil {
		return nil, err
	}
	q := m.Query()
	if !storagemodels.Match(*row, q.Conditions) {
		return nil, errors.NewNotFoundError(m.node.name, id)
	}
	if q.Fields != nil {
		projected := row.Project(q.Fields)
		row = &projected
	}
	return m.materialize(*row)
}

// Count returns the number of matching rows.
func (m *Manager) Count(ctx context.Context) (int, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	q := m.Query()
	q.Fields = []string{IDField}
	q.OrderBy = nil
	rows, err := m.store.Query(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", m.node.name, err)
	}
	return len(rows), nil
}

// Create constructs a record of the manager's class from named values and saves it.
func (m *Manager) Create(ctx context.Context, named map[string]any) (*Record, error) {
	r, err := m.node.New(named)
	if err != nil {
		return nil, err
	}
	if err := m.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Save persists r. Deferred fields are loaded first, the record's class is re-synced with its
// type and untyped records are refused. New records get a UUID primary key.
func (m *Manager) Save(ctx context.Context, r *Record) error {
	if err := m.ready(); err != nil {
		return err
	}
	if len(r.deferred) > 0 && r.ID() != "" {
		if err := m.Refresh(ctx, r); err != nil {
			return err
		}
	}
	if err := r.Recast(); err != nil {
		return err
	}
	if err := r.CheckSave(); err != nil {
		return err
	}
	if r.ID() == "" {
		r.values[IDField] = uuid.NewString()
	}
	if err := m.store.Put(ctx, m.node.h.schema.Table(), r.Row()); err != nil {
		m.node.h.logger.Warn("save failed", zap.String("id", r.ID()), zap.Error(err))
		return fmt.Errorf("save %s %q: %w", r.class.name, r.ID(), err)
	}
	r.saved(m.db)
	return nil
}

// Refresh loads the deferred fields of r.
func (m *Manager) Refresh(ctx context.Context, r *Record) error {
	if err := m.ready(); err != nil {
		return err
	}
	row, err := m.store.GetOne(ctx, m.node.h.schema.Table(), r.ID())
	if err != nil {
		return err
	}
	return r.load(*row)
}

// Delete removes r from the store.
func (m *Manager) Delete(ctx context.Context, r *Record) error {
	if err := m.ready(); err != nil {
		return err
	}
	if r.ID() == "" {
		return errors.NewValidationError(IDField, "record has no primary key")
	}
	return m.store.Delete(ctx, m.node.h.schema.Table(), r.ID())
}

// Stream pages through the matching records.
func (m *Manager) Stream(ctx context.Context, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[*Record] {
	if err := m.ready(); err != nil {
		ch := make(chan storagemodels.StreamResult[*Record], 1)
		ch <- storagemodels.StreamResult[*Record]{Error: err}
		close(ch)
		return ch
	}
	return datastore.Stream(ctx, m.store, m.Query(), m.materialize, opts...)
}
