/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/suparena/typedmodels/schema"
)

// CreateTableSQL returns the statements creating the shared table of s and its indexes.
// Only the primary key is constrained; sibling classes leave each other's columns empty.
func (d Dialect) CreateTableSQL(s *schema.Schema) []string {
	var cols []string
	var stmts []string
	for _, f := range s.Fields() {
		if f.Type == schema.TypeReverseRelation {
			continue
		}
		col := d.Quote(f.Name) + " " + d.ColumnType(f)
		if f.Primary {
			col += " PRIMARY KEY"
		} else if f.Unique {
			col += " UNIQUE"
		}
		cols = append(cols, col)
		if f.Index && !f.Primary && !f.Unique {
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				d.Quote(s.Table()+"_"+f.Name+"_idx"), d.Quote(s.Table()), d.Quote(f.Name)))
		}
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", d.Quote(s.Table()), strings.Join(cols, ",\n\t"))
	return append([]string{create}, stmts...)
}

// EnsureTable creates the table of s when it does not exist.
func (st *DataStore) EnsureTable(ctx context.Context, s *schema.Schema) error {
	for _, stmt := range st.dialect.CreateTableSQL(s) {
		if _, err := st.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", s.Table(), err)
		}
	}
	st.logger.Info("table ensured", zap.String("table", s.Table()), zap.Int("columns", s.Len()))
	return nil
}
