/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/config"
	"github.com/suparena/typedmodels/datastore"
	"github.com/suparena/typedmodels/processor"
)

type globalFlags struct {
	configPath   string
	declarations []string
	envFiles     []string
}

// environment is what the commands work with: the loaded configuration, the catalog declared
// from the declaration files and, when requested, the configured store.
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *typedmodels.Catalog
	store   datastore.DataStore
	closer  func() error
}

func (e *environment) Close() error {
	if e.closer != nil {
		return e.closer()
	}
	return nil
}

// load builds the environment. The store is only opened when withStore is set.
func (g *globalFlags) load(ctx context.Context, withStore bool) (*environment, error) {
	cfg, err := config.Load(g.configPath, g.envFiles...)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, logger: logger, catalog: typedmodels.NewCatalog()}

	opts := []typedmodels.Option{typedmodels.WithLogger(logger)}
	if withStore {
		store, closer, err := openStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		env.store, env.closer = store, closer
		if err := env.catalog.RegisterDataStore(typedmodels.DefaultDB, store); err != nil {
			env.Close()
			return nil, err
		}
		opts = append(opts, typedmodels.WithDataStore(store))
	}

	files := append(append([]string{}, cfg.Declarations...), g.declarations...)
	if len(files) == 0 {
		env.Close()
		return nil, fmt.Errorf("no declaration files; set declarations in the config or pass --declarations")
	}
	for _, path := range files {
		file, err := processor.LoadFile(path)
		if err != nil {
			env.Close()
			return nil, err
		}
		if _, err := file.Apply(env.catalog, opts...); err != nil {
			env.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	logger.Debug("declarations loaded", zap.Strings("files", files))
	return env, nil
}

func (e *environment) node(model string) (*typedmodels.Node, error) {
	n, ok := e.catalog.Lookup(model)
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}
	return n, nil
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "typedmodels",
		Short: "Inspect and query single-table typed hierarchies",
		Long: color.CyanString(`typedmodels - single-table inheritance for record stores

Declares typed hierarchies from YAML declaration files and works with their rows in
memory, SQL (SQLite, PostgreSQL), DynamoDB or Redis stores.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (default ./typedmodels.yaml)")
	flags.StringSliceVarP(&g.declarations, "declarations", "d", nil, "declaration files, added to the configured ones")
	flags.StringSliceVar(&g.envFiles, "env-file", nil, "env files to export before reading the config (default .env)")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newInspectCommand(g))
	rootCmd.AddCommand(newTypesCommand(g))
	rootCmd.AddCommand(newQueryCommand(g))
	rootCmd.AddCommand(newLoadCommand(g))
	rootCmd.AddCommand(newMigrateCommand(g))
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
