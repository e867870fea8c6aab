/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels/datastore/ddb"
	"github.com/suparena/typedmodels/datastore/redisstore"
)

// EnvPrefix prefixes the environment variables that override configuration keys, e.g.
// TYPEDMODELS_SQL_DSN for sql.dsn.
const EnvPrefix = "TYPEDMODELS"

// Backends
const (
	BackendMemory   = "memory"
	BackendSQL      = "sql"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Config is the configuration of the typedmodels tooling.
type Config struct {
	Backend      string            `mapstructure:"backend"`
	LogLevel     string            `mapstructure:"log_level"`
	SQL          SQLConfig         `mapstructure:"sql"`
	DynamoDB     ddb.Config        `mapstructure:"dynamodb"`
	Redis        redisstore.Config `mapstructure:"redis"`
	Declarations []string          `mapstructure:"declarations"`
}

// SQLConfig selects a database/sql driver and data source.
type SQLConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

var defaults = map[string]any{
	"backend":             BackendMemory,
	"log_level":           "info",
	"sql.driver":          "sqlite3",
	"sql.dsn":             "file:typedmodels.db?cache=shared",
	"dynamodb.region":     "us-east-1",
	"dynamodb.table":      "",
	"dynamodb.access_key": "",
	"dynamodb.secret_key": "",
	"dynamodb.endpoint":   "",
	"redis.addr":          "localhost:6379",
	"redis.password":      "",
	"redis.db":            0,
	"redis.prefix":        "",
	"declarations":        []string{},
}

// Load reads the configuration. Variables from the env files (".env" when none are given) are
// exported first; missing env files are skipped. path names the config file; when empty,
// typedmodels.yaml is looked up in the working directory and may be absent. Environment
// variables prefixed with EnvPrefix override every key.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("typedmodels")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backend is fully configured.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
	case BackendSQL:
		if c.SQL.Driver == "" || c.SQL.DSN == "" {
			return fmt.Errorf("backend %q needs sql.driver and sql.dsn", c.Backend)
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("backend %q needs dynamodb.table", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// NewLogger builds a development logger at debug level and a production logger otherwise.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if level.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}
