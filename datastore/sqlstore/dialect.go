/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/typedmodels/schema"
)

// Dialect holds the SQL differences between the supported databases.
type Dialect struct {
	Name string
	// numbered reports whether placeholders are $1, $2... rather than ?
	numbered bool
	// noLimit is the LIMIT value that means unlimited, needed when only OFFSET is given.
	noLimit string
	types   map[schema.FieldType]string
}

var (
	// Postgres serves the lib/pq and pgx drivers.
	Postgres = Dialect{
		Name:     "postgres",
		numbered: true,
		noLimit:  "ALL",
		types: map[schema.FieldType]string{
			schema.TypeText:     "TEXT",
			schema.TypeInt:      "BIGINT",
			schema.TypeFloat:    "DOUBLE PRECISION",
			schema.TypeBool:     "BOOLEAN",
			schema.TypeDateTime: "TIMESTAMPTZ",
			schema.TypeUUID:     "UUID",
		},
	}

	// SQLite serves the go-sqlite3 driver.
	SQLite = Dialect{
		Name:    "sqlite3",
		noLimit: "-1",
		types: map[schema.FieldType]string{
			schema.TypeText:     "TEXT",
			schema.TypeInt:      "INTEGER",
			schema.TypeFloat:    "REAL",
			schema.TypeBool:     "BOOLEAN",
			schema.TypeDateTime: "TEXT",
			schema.TypeUUID:     "TEXT",
		},
	}
)

// DialectFor returns the dialect of a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported SQL driver %q", driver)
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an identifier.
func (d Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// ColumnType returns the column type of f. Relations store keys: single ones as strings, sets
// as JSON arrays.
func (d Dialect) ColumnType(f *schema.Field) string {
	switch f.Type {
	case schema.TypeString, schema.TypeForeignKey, schema.TypeOneToOne:
		n := f.MaxLength
		if n <= 0 {
			n = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", n)
	case schema.TypeManyToMany, schema.TypeGenericRelation:
		return "TEXT"
	}
	if t, ok := d.types[f.Type]; ok {
		return t
	}
	return "TEXT"
}
