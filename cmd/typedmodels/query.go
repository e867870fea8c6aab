/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/schema"
	"github.com/suparena/typedmodels/serializers"
	"github.com/suparena/typedmodels/storagemodels"
)

type queryFlags struct {
	where    []string
	order    []string
	only     []string
	limit    int
	offset   int
	format   string
	fixtures []string
}

func newQueryCommand(g *globalFlags) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <model>",
		Short: "Query the rows of a class",
		Long: `Query the rows of a class. Only rows whose type belongs to the class or one of its
subclasses are returned, each recast to its most specific class.

Filters have the form field<op>value with op one of =, !=, >, >=, <, <=.
Values are converted to the field's type.`,
		Example: `  typedmodels query zooapp.BigCat --where "mice_eaten>=5" --order -mice_eaten
  typedmodels query Animal --fixture animals.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.load(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.Close()

			for _, path := range f.fixtures {
				if _, err := loadFixture(cmd, env, path, ""); err != nil {
					return err
				}
			}

			n, err := env.node(args[0])
			if err != nil {
				return err
			}
			m := n.Objects()
			for _, expr := range f.where {
				c, err := parseCondition(n, expr)
				if err != nil {
					return err
				}
				m = m.Where(c)
			}
			if len(f.order) > 0 {
				m = m.OrderBy(f.order...)
			}
			if len(f.only) > 0 {
				m = m.Only(f.only...)
			}
			if f.limit > 0 {
				m = m.Limit(f.limit)
			}
			if f.offset > 0 {
				m = m.Offset(f.offset)
			}

			records, err := m.All(cmd.Context())
			if err != nil {
				return err
			}
			env.logger.Debug("query finished", zap.String("model", n.QualifiedName()), zap.Int("rows", len(records)))
			return serializers.Serialize(cmd.OutOrStdout(), f.format, records)
		},
	}

	cmd.Flags().StringArrayVarP(&f.where, "where", "w", nil, "filter, e.g. name=Tom or mice_eaten>=5 (repeatable)")
	cmd.Flags().StringSliceVarP(&f.order, "order", "o", nil, "order by fields, prefix with - for descending")
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "fetch only these fields")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVarP(&f.format, "format", "f", "yaml", fmt.Sprintf("output format (%s)", strings.Join(serializers.Formats(), ", ")))
	cmd.Flags().StringSliceVar(&f.fixtures, "fixture", nil, "fixture files to load before querying")
	return cmd
}

// operators is ordered so that two-character operators are matched first.
var operators = []storagemodels.Operator{
	storagemodels.OpGte,
	storagemodels.OpLte,
	storagemodels.OpNeq,
	storagemodels.OpEq,
	storagemodels.OpGt,
	storagemodels.OpLt,
}

// parseCondition turns field<op>value into a condition on a field visible on n.
func parseCondition(n *typedmodels.Node, expr string) (storagemodels.Condition, error) {
	for _, op := range operators {
		name, raw, ok := strings.Cut(expr, string(op))
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		field, err := n.GetField(name)
		if err != nil {
			return storagemodels.Condition{}, err
		}
		value, err := field.Coerce(strings.TrimSpace(raw))
		if err != nil {
			return storagemodels.Condition{}, err
		}
		return storagemodels.Condition{Field: name, Operator: op, Value: field.Storable(value)}, nil
	}
	return storagemodels.Condition{}, fmt.Errorf("invalid filter %q: expected field<op>value", expr)
}

func newLoadCommand(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "load <file>...",
		Short: "Load serialized records into the configured store",
		Long: `Load records written by "query" (or by hand) into the configured store. Each object
names its model and carries a "type" field; the record is recast to that class before it is
saved.`,
		Example: `  typedmodels load animals.yaml
  typedmodels load dump.json --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.load(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.Close()

			total := 0
			for _, path := range args {
				n, err := loadFixture(cmd, env, path, format)
				if err != nil {
					return err
				}
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d records\n", total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "input format; derived from the file extension when empty")
	return cmd
}

// loadFixture saves every record of the file at path and returns how many were saved.
func loadFixture(cmd *cobra.Command, env *environment, path, format string) (int, error) {
	if format == "" {
		format = formatFor(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	records, err := serializers.Deserialize(file, format, env.catalog)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	for _, r := range records {
		if err := r.Class().Objects().Save(cmd.Context(), r); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
	}
	env.logger.Info("fixture loaded", zap.String("path", path), zap.Int("records", len(records)))
	return len(records), nil
}

func formatFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".json"):
		return "json"
	default:
		return "yaml"
	}
}

func newMigrateCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables of the declared hierarchies",
		Long: `Create the shared table of every declared hierarchy, with one column per field of
every class. Existing tables are left untouched. Only the sql backend keeps a schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.load(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.Close()

			st, ok := env.store.(interface {
				EnsureTable(ctx context.Context, s *schema.Schema) error
			})
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Backend %s has no schema to migrate\n", env.cfg.Backend)
				return nil
			}
			for _, h := range env.catalog.Hierarchies() {
				if err := st.EnsureTable(cmd.Context(), h.Schema()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("✓"), h.Table())
			}
			return nil
		},
	}
}
