/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"sort"
)

// Operator is a comparison used by a Condition.
type Operator string

const (
	OpEq  Operator = "="
	OpNeq Operator = "!="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpIn  Operator = "IN"
)

// Condition is a single filter on a column. Conditions of a Query are ANDed.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Eq creates a condition for checking equality.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Operator: OpEq, Value: value}
}

// Neq creates a condition for checking inequality.
func Neq(field string, value any) Condition {
	return Condition{Field: field, Operator: OpNeq, Value: value}
}

// Gt creates a condition for checking if a value is greater than another.
func Gt(field string, value any) Condition {
	return Condition{Field: field, Operator: OpGt, Value: value}
}

// Gte creates a condition for checking if a value is greater than or equal to another.
func Gte(field string, value any) Condition {
	return Condition{Field: field, Operator: OpGte, Value: value}
}

// Lt creates a condition for checking if a value is less than another.
func Lt(field string, value any) Condition {
	return Condition{Field: field, Operator: OpLt, Value: value}
}

// Lte creates a condition for checking if a value is less than or equal to another.
func Lte(field string, value any) Condition {
	return Condition{Field: field, Operator: OpLte, Value: value}
}

// In creates a set-membership condition.
func In(field string, values ...string) Condition {
	return Condition{Field: field, Operator: OpIn, Value: append([]string(nil), values...)}
}

// Order is a sort key of a query.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a read against one table. Backends translate it into their native form.
type Query struct {
	// Table is the physical table shared by the whole hierarchy.
	Table string
	// Conditions are ANDed; the typed managers add the discriminator narrowing here.
	Conditions []Condition
	OrderBy    []Order
	// Fields restricts the fetched columns. Nil fetches every column.
	Fields []string
	Limit  int
	Offset int
}

// Clone returns a copy of q that shares no slices with it.
func (q *Query) Clone() *Query {
	c := *q
	c.Conditions = append([]Condition(nil), q.Conditions...)
	c.OrderBy = append([]Order(nil), q.OrderBy...)
	if q.Fields != nil {
		c.Fields = append([]string{}, q.Fields...)
	}
	return &c
}

// Row is a stored row.
type Row struct {
	ID     string
	Values map[string]any
	// Fetched lists the columns that were loaded. Nil means the whole row was fetched.
	Fetched []string
}

// HasField reports whether column name was loaded.
func (r Row) HasField(name string) bool {
	if r.Fetched == nil {
		return true
	}
	for _, f := range r.Fetched {
		if f == name {
			return true
		}
	}
	return false
}

// Project returns a copy of r restricted to fields. The id column is always kept.
func (r Row) Project(fields []string) Row {
	if fields == nil {
		values := make(map[string]any, len(r.Values))
		for k, v := range r.Values {
			values[k] = v
		}
		return Row{ID: r.ID, Values: values}
	}
	fetched := make([]string, 0, len(fields)+1)
	values := make(map[string]any, len(fields)+1)
	seen := make(map[string]bool, len(fields)+1)
	for _, f := range append([]string{"id"}, fields...) {
		if seen[f] {
			continue
		}
		seen[f] = true
		fetched = append(fetched, f)
		if v, ok := r.Values[f]; ok {
			values[f] = v
		}
	}
	return Row{ID: r.ID, Values: values, Fetched: fetched}
}

// Apply filters, sorts, pages and projects rows according to q. Key-value backends that
// cannot push the query down use it after loading candidate rows.
func Apply(q *Query, rows []Row) []Row {
	matched := make([]Row, 0, len(rows))
	for _, r := range rows {
		if Match(r, q.Conditions) {
			matched = append(matched, r)
		}
	}
	SortRows(matched, q.OrderBy)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]Row, len(matched))
	for i, r := range matched {
		out[i] = r.Project(q.Fields)
	}
	return out
}

// SortRows sorts rows in place by orders. Rows that compare equal keep their order.
func SortRows(rows []Row, orders []Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compare(rows[i].value(o.Field), rows[j].value(o.Field))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func (r Row) value(field string) any {
	if field == "id" {
		if v, ok := r.Values["id"]; ok && v != nil {
			return v
		}
		return r.ID
	}
	return r.Values[field]
}
