/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/schema"
)

func newInspectCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the declared hierarchies",
		Long: `Print every declared hierarchy as a tree.

Each class shows its discriminator and the fields it adds to the shared table.
Abstract classes and proxies are marked.`,
		Example: `  typedmodels inspect --declarations zoo.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			for _, h := range env.catalog.Hierarchies() {
				headerColor := color.New(color.FgCyan, color.Bold)
				headerColor.Fprintf(out, "%s", h.Root().QualifiedName())
				fmt.Fprintf(out, " (table %s)\n", h.Table())
				printNode(out, h.Root(), "")
			}
			return nil
		},
	}
}

func printNode(out io.Writer, n *typedmodels.Node, indent string) {
	nameColor := color.New(color.FgGreen)
	dimColor := color.New(color.FgHiBlack)

	fmt.Fprint(out, indent)
	nameColor.Fprint(out, n.Name())
	switch {
	case n.IsAbstract():
		dimColor.Fprint(out, " [abstract]")
	case n.IsProxy():
		dimColor.Fprintf(out, " [proxy %s]", n.Discriminator())
	case n.Discriminator() != "":
		fmt.Fprintf(out, " [%s]", n.Discriminator())
	}
	if added := addedFields(n); len(added) > 0 {
		fmt.Fprintf(out, " +%s", strings.Join(added, ", +"))
	}
	fmt.Fprintln(out)

	for _, c := range n.Children() {
		printNode(out, c, indent+"  ")
	}
}

// addedFields lists the fields n contributes, with their types.
func addedFields(n *typedmodels.Node) []string {
	var out []string
	for _, f := range n.GetFields(typedmodels.FieldQuery{}) {
		if f.Owner != n.Name() || f.Type == schema.TypeReverseRelation {
			continue
		}
		out = append(out, fmt.Sprintf("%s:%s", f.Name, f.Type))
	}
	return out
}

func newTypesCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "types <model>",
		Short:   "List the discriminators a class selects and its visible fields",
		Example: `  typedmodels types zooapp.BigCat`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.Close()

			n, err := env.node(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "Types: ")
			switch types := n.Types(); {
			case n.IsRoot():
				fmt.Fprintln(out, "(all)")
			case len(types) == 0:
				fmt.Fprintln(out, "(none)")
			default:
				fmt.Fprintln(out, strings.Join(types, ", "))
			}
			titleColor.Fprint(out, "Fields: ")
			fmt.Fprintln(out, strings.Join(n.FieldNames(), ", "))
			if m2m := n.ManyToMany(); len(m2m) > 0 {
				names := make([]string, len(m2m))
				for i, f := range m2m {
					names[i] = f.Name
				}
				titleColor.Fprint(out, "Many-to-many: ")
				fmt.Fprintln(out, strings.Join(names, ", "))
			}
			return nil
		},
	}
}
