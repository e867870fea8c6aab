/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels/config"
	"github.com/suparena/typedmodels/datastore"
	"github.com/suparena/typedmodels/datastore/ddb"
	"github.com/suparena/typedmodels/datastore/mock"
	"github.com/suparena/typedmodels/datastore/redisstore"
	"github.com/suparena/typedmodels/datastore/sqlstore"
)

// openStore opens the configured backend. The returned function releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datastore.DataStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendMemory:
		return mock.New(), noop, nil
	case config.BackendSQL:
		st, err := sqlstore.Open(cfg.SQL.Driver, cfg.SQL.DSN, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case config.BackendDynamoDB:
		st, err := ddb.NewDynamodbDataStore(ctx, cfg.DynamoDB, ddb.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	case config.BackendRedis:
		st, err := redisstore.Connect(ctx, cfg.Redis, redisstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
