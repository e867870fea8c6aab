/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/suparena/typedmodels/datastore"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

const idColumn = "id"

// DataStore stores each hierarchy in one SQL table with one column per field of the merged
// schema.
type DataStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Option configures a DataStore.
type Option func(*DataStore)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(st *DataStore) {
		st.logger = l
	}
}

var _ datastore.DataStore = (*DataStore)(nil)

// New wraps an open database.
func New(db *sql.DB, dialect Dialect, opts ...Option) *DataStore {
	st := &DataStore{db: db, dialect: dialect, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Open opens dsn with a registered database/sql driver and picks the matching dialect.
func Open(driver, dsn string, opts ...Option) (*DataStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return New(db, dialect, opts...), nil
}

// DB returns the underlying database.
func (st *DataStore) DB() *sql.DB { return st.db }

// Close closes the database.
func (st *DataStore) Close() error { return st.db.Close() }

// GetOne retrieves a row by id.
func (st *DataStore) GetOne(ctx context.Context, table, id string) (*storagemodels.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		st.dialect.Quote(table), st.dialect.Quote(idColumn), st.dialect.Placeholder(1))
	rows, err := st.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, st.fail("get", table, err)
	}
	defer rows.Close()

	result, err := scanRows(rows, nil)
	if err != nil {
		return nil, st.fail("get", table, err)
	}
	if len(result) == 0 {
		return nil, errors.NewNotFoundError(table, id)
	}
	return &result[0], nil
}

// Put upserts row. Only the columns present in the row are written.
func (st *DataStore) Put(ctx context.Context, table string, row storagemodels.Row) error {
	if row.ID == "" {
		return errors.NewValidationError(idColumn, "row has no id")
	}
	columns := []string{idColumn}
	for name := range row.Values {
		if name != idColumn {
			columns = append(columns, name)
		}
	}
	sort.Strings(columns[1:])

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	var updates []string
	for i, c := range columns {
		quoted[i] = st.dialect.Quote(c)
		placeholders[i] = st.dialect.Placeholder(i + 1)
		if c == idColumn {
			args[i] = row.ID
			continue
		}
		v, err := storable(row.Values[c])
		if err != nil {
			return fmt.Errorf("column %s: %w", c, err)
		}
		args[i] = v
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", quoted[i], quoted[i]))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		st.dialect.Quote(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "), st.dialect.Quote(idColumn))
	if len(updates) == 0 {
		query += "DO NOTHING"
	} else {
		query += "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	if _, err := st.db.ExecContext(ctx, query, args...); err != nil {
		return st.fail("put", table, err)
	}
	return nil
}

// Delete removes a row by id.
func (st *DataStore) Delete(ctx context.Context, table, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		st.dialect.Quote(table), st.dialect.Quote(idColumn), st.dialect.Placeholder(1))
	res, err := st.db.ExecContext(ctx, query, id)
	if err != nil {
		return st.fail("delete", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return st.fail("delete", table, err)
	}
	if n == 0 {
		return errors.NewNotFoundError(table, id)
	}
	return nil
}

// Query runs q as a single SELECT.
func (st *DataStore) Query(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error) {
	query, args, err := st.dialect.SelectSQL(q)
	if err != nil {
		return nil, err
	}
	st.logger.Debug("sql query", zap.String("sql", query), zap.Int("args", len(args)))

	rows, err := st.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, st.fail("query", q.Table, err)
	}
	defer rows.Close()

	var fetched []string
	if q.Fields != nil {
		fetched = selectColumns(q)
	}
	result, err := scanRows(rows, fetched)
	if err != nil {
		return nil, st.fail("query", q.Table, err)
	}
	return result, nil
}

func (st *DataStore) fail(op, table string, err error) error {
	st.logger.Warn("sql statement failed", zap.String("op", op), zap.String("table", table), zap.Error(err))
	return fmt.Errorf("%s %s: %w", op, table, err)
}

func selectColumns(q *storagemodels.Query) []string {
	cols := []string{idColumn}
	for _, f := range q.Fields {
		if f != idColumn {
			cols = append(cols, f)
		}
	}
	return cols
}

// SelectSQL renders q as a SELECT statement and its arguments.
func (d Dialect) SelectSQL(q *storagemodels.Query) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Fields == nil {
		b.WriteString("*")
	} else {
		cols := selectColumns(q)
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Quote(c))
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(d.Quote(q.Table))

	var args []any
	var where []string
	for _, c := range q.Conditions {
		col := d.Quote(c.Field)
		if c.Operator == storagemodels.OpIn {
			set, ok := c.Value.([]string)
			if !ok {
				return "", nil, fmt.Errorf("IN condition on %s needs a string set", c.Field)
			}
			if len(set) == 0 {
				where = append(where, "1 = 0")
				continue
			}
			ph := make([]string, len(set))
			for i, v := range set {
				args = append(args, v)
				ph[i] = d.Placeholder(len(args))
			}
			where = append(where, fmt.Sprintf("%s IN (%s)", col, strings.Join(ph, ", ")))
			continue
		}
		if c.Value == nil {
			switch c.Operator {
			case storagemodels.OpEq:
				where = append(where, col+" IS NULL")
				continue
			case storagemodels.OpNeq:
				where = append(where, col+" IS NOT NULL")
				continue
			}
		}
		op := string(c.Operator)
		switch c.Operator {
		case storagemodels.OpNeq:
			op = "<>"
		case storagemodels.OpEq, storagemodels.OpGt, storagemodels.OpGte, storagemodels.OpLt, storagemodels.OpLte:
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Operator)
		}
		args = append(args, c.Value)
		where = append(where, fmt.Sprintf("%s %s %s", col, op, d.Placeholder(len(args))))
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	if len(q.OrderBy) > 0 {
		orders := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			orders[i] = d.Quote(o.Field)
			if o.Desc {
				orders[i] += " DESC"
			}
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}

	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	case q.Offset > 0:
		b.WriteString(" LIMIT " + d.noLimit)
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(q.Offset))
	}
	return b.String(), args, nil
}

// storable converts a row value into a driver value. Key sets are stored as JSON arrays.
func storable(v any) (any, error) {
	switch t := v.(type) {
	case []string:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case []any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

// scanRows reads every row into a Row. fetched, when not nil, records the selected columns.
func scanRows(rows *sql.Rows, fetched []string) ([]storagemodels.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []storagemodels.Row
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := storagemodels.Row{Values: make(map[string]any, len(columns))}
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row.Values[col] = v
		}
		if id, ok := row.Values[idColumn]; ok && id != nil {
			row.ID = fmt.Sprint(id)
		}
		if fetched != nil {
			row.Fetched = append([]string(nil), fetched...)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
