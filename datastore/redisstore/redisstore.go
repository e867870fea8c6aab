/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels/datastore"
	storeerrors "github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

const (
	idColumn   = "id"
	typeColumn = "type"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Prefix is prepended to every key.
	Prefix string `mapstructure:"prefix"`
}

// DefaultConfig returns a configuration for a local server.
func DefaultConfig() Config {
	return Config{Addr: "localhost:6379"}
}

// DataStore keeps each row in a hash "<table>:<id>" whose fields hold JSON encoded column
// values. The set "<table>:ids" lists every row and "<table>:type:<discriminator>" the rows of
// each class, so discriminator narrowing reads only the matching rows.
type DataStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// Option configures a DataStore.
type Option func(*DataStore)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *DataStore) {
		s.logger = l
	}
}

// WithPrefix prepends prefix to every key.
func WithPrefix(prefix string) Option {
	return func(s *DataStore) {
		s.prefix = prefix
	}
}

var _ datastore.DataStore = (*DataStore)(nil)

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *DataStore {
	s := &DataStore{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a client for cfg and checks the connection.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*DataStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return New(client, append([]Option{WithPrefix(cfg.Prefix)}, opts...)...), nil
}

// Close closes the client.
func (s *DataStore) Close() error { return s.client.Close() }

func (s *DataStore) rowKey(table, id string) string { return s.prefix + table + ":" + id }

func (s *DataStore) idsKey(table string) string { return s.prefix + table + ":ids" }

func (s *DataStore) typeKey(table, d string) string { return s.prefix + table + ":type:" + d }

// GetOne retrieves a row by id.
func (s *DataStore) GetOne(ctx context.Context, table, id string) (*storagemodels.Row, error) {
	fields, err := s.client.HGetAll(ctx, s.rowKey(table, id)).Result()
	if err != nil {
		return nil, s.fail("get", table, err)
	}
	if len(fields) == 0 {
		return nil, storeerrors.NewNotFoundError(table, id)
	}
	row, err := decodeRow(id, fields)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Put replaces the row and moves it between discriminator sets when its type changed.
func (s *DataStore) Put(ctx context.Context, table string, row storagemodels.Row) error {
	if row.ID == "" {
		return storeerrors.NewValidationError(idColumn, "row has no id")
	}
	values := make(map[string]any, len(row.Values)+1)
	for name, v := range row.Values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
		values[name] = string(b)
	}
	id, _ := json.Marshal(row.ID)
	values[idColumn] = string(id)

	oldType, err := s.storedType(ctx, table, row.ID)
	if err != nil {
		return s.fail("put", table, err)
	}
	newType, _ := row.Values[typeColumn].(string)

	key := s.rowKey(table, row.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		pipe.SAdd(ctx, s.idsKey(table), row.ID)
		if oldType != "" && oldType != newType {
			pipe.SRem(ctx, s.typeKey(table, oldType), row.ID)
		}
		if newType != "" {
			pipe.SAdd(ctx, s.typeKey(table, newType), row.ID)
		}
		return nil
	})
	if err != nil {
		return s.fail("put", table, err)
	}
	return nil
}

// Delete removes a row and its index entries.
func (s *DataStore) Delete(ctx context.Context, table, id string) error {
	key := s.rowKey(table, id)
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return s.fail("delete", table, err)
	}
	if n == 0 {
		return storeerrors.NewNotFoundError(table, id)
	}
	typ, err := s.storedType(ctx, table, id)
	if err != nil {
		return s.fail("delete", table, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, s.idsKey(table), id)
		if typ != "" {
			pipe.SRem(ctx, s.typeKey(table, typ), id)
		}
		return nil
	})
	if err != nil {
		return s.fail("delete", table, err)
	}
	return nil
}

// Query loads the candidate rows of q, using the discriminator sets when q is narrowed by
// type, and applies conditions, ordering, paging and projection to them.
func (s *DataStore) Query(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error) {
	ids, err := s.candidates(ctx, q)
	if err != nil {
		return nil, s.fail("query", q.Table, err)
	}
	if len(ids) == 0 {
		return []storagemodels.Row{}, nil
	}
	sort.Strings(ids)

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.rowKey(q.Table, id))
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("query", q.Table, err)
	}

	rows := make([]storagemodels.Row, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// removed between reading the index and the rows
			continue
		}
		row, err := decodeRow(ids[i], fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	s.logger.Debug("redis query",
		zap.String("table", q.Table),
		zap.Int("candidates", len(ids)),
		zap.Int("rows", len(rows)))
	return storagemodels.Apply(q, rows), nil
}

// candidates returns the ids that may match q.
func (s *DataStore) candidates(ctx context.Context, q *storagemodels.Query) ([]string, error) {
	for _, c := range q.Conditions {
		if c.Field != typeColumn {
			continue
		}
		var types []string
		switch c.Operator {
		case storagemodels.OpEq:
			d, ok := c.Value.(string)
			if !ok {
				continue
			}
			types = []string{d}
		case storagemodels.OpIn:
			set, ok := c.Value.([]string)
			if !ok {
				continue
			}
			types = set
		default:
			continue
		}
		if len(types) == 0 {
			return nil, nil
		}
		keys := make([]string, len(types))
		for i, d := range types {
			keys[i] = s.typeKey(q.Table, d)
		}
		return s.client.SUnion(ctx, keys...).Result()
	}
	return s.client.SMembers(ctx, s.idsKey(q.Table)).Result()
}

func (s *DataStore) storedType(ctx context.Context, table, id string) (string, error) {
	raw, err := s.client.HGet(ctx, s.rowKey(table, id), typeColumn).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var typ string
	if err := json.Unmarshal([]byte(raw), &typ); err != nil {
		return "", nil
	}
	return typ, nil
}

func (s *DataStore) fail(op, table string, err error) error {
	s.logger.Warn("redis command failed", zap.String("op", op), zap.String("table", table), zap.Error(err))
	return fmt.Errorf("%s %s: %w", op, table, err)
}

func decodeRow(id string, fields map[string]string) (storagemodels.Row, error) {
	row := storagemodels.Row{ID: id, Values: make(map[string]any, len(fields))}
	for name, raw := range fields {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return storagemodels.Row{}, fmt.Errorf("decode %s of %q: %w", name, id, err)
		}
		row.Values[name] = v
	}
	return row, nil
}
