/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels/datastore"
	storeerrors "github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/registry"
	"github.com/suparena/typedmodels/storagemodels"
)

// Client is the part of the DynamoDB API the store uses. *dynamodb.Client implements it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

// Config holds the connection settings of a DynamoDB table.
type Config struct {
	Region    string `mapstructure:"region"`
	Table     string `mapstructure:"table"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string `mapstructure:"endpoint"`
}

// DataStore stores every hierarchy in one DynamoDB table. Row keys are built from the index
// map registered for the hierarchy's table, registry.DefaultIndexMap otherwise, so all rows of
// a hierarchy share one partition and can be read with a single Query.
type DataStore struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

// Option configures a DataStore.
type Option func(*DataStore)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *DataStore) {
		d.logger = l
	}
}

var _ datastore.DataStore = (*DataStore)(nil)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are used when both keys
// are given; otherwise the default AWS credential chain applies.
func NewDynamoDBClient(ctx context.Context, cfg Config) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// New wraps client as a DataStore writing to tableName.
func New(client Client, tableName string, opts ...Option) *DataStore {
	d := &DataStore{client: client, tableName: tableName, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDynamodbDataStore connects to the table described by cfg.
func NewDynamodbDataStore(ctx context.Context, cfg Config, opts ...Option) (*DataStore, error) {
	if cfg.Table == "" {
		return nil, storeerrors.NewValidationError("table", "DynamoDB table name is required")
	}
	client, err := NewDynamoDBClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	d := New(client, cfg.Table, opts...)
	d.logger.Info("DynamoDB datastore initialized",
		zap.String("table", cfg.Table),
		zap.String("region", cfg.Region))
	return d, nil
}

// expandMacros fills the templates of indexMap with the attributes of item. The macros {table}
// and {id} are always available.
func expandMacros(indexMap map[string]string, table string, item map[string]types.AttributeValue) map[string]string {
	res := make(map[string]string, len(indexMap))
	for attr, template := range indexMap {
		res[attr] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			if key == "table" {
				return table
			}
			switch tv := item[key].(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
	}
	return res
}

// macros returns the macro names used by template.
func macros(template string) []string {
	var out []string
	for _, m := range macroPattern.FindAllStringSubmatch(template, -1) {
		out = append(out, m[1])
	}
	return out
}

// keyFor builds the primary key of row id in table.
func keyFor(table, id string) (map[string]types.AttributeValue, error) {
	expanded := expandMacros(registry.IndexMapFor(table), table, map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	})
	return buildKeyFromExpanded(expanded)
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, sk := expanded["PK"], expanded["SK"]
	if pk == "" || sk == "" {
		return nil, errors.New("expanded index map missing valid PK or SK")
	}
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// GetOne retrieves a row by id.
func (d *DataStore) GetOne(ctx context.Context, table, id string) (*storagemodels.Row, error) {
	key, err := keyFor(table, id)
	if err != nil {
		return nil, fmt.Errorf("failed to build key: %w", err)
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &d.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, d.mapError("GetItem", table, id, err)
	}
	if out.Item == nil {
		return nil, storeerrors.NewNotFoundError(table, id)
	}

	row, err := itemToRow(out.Item, registry.IndexMapFor(table))
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Put stores row, replacing any previous version. The index map attributes are written next to
// the row's columns.
func (d *DataStore) Put(ctx context.Context, table string, row storagemodels.Row) error {
	if row.ID == "" {
		return storeerrors.NewValidationError("id", "row has no id")
	}
	values := make(map[string]any, len(row.Values)+1)
	for k, v := range row.Values {
		values[k] = v
	}
	values["id"] = row.ID

	av, err := attributevalue.MarshalMap(values)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	expanded := expandMacros(registry.IndexMapFor(table), table, av)
	if _, err := buildKeyFromExpanded(expanded); err != nil {
		return err
	}
	for k, v := range expanded {
		av[k] = &types.AttributeValueMemberS{Value: v}
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      av,
	})
	if err != nil {
		return d.mapError("PutItem", table, row.ID, err)
	}
	return nil
}

// Delete removes a row. Deleting a missing row returns a NotFoundError.
func (d *DataStore) Delete(ctx context.Context, table, id string) error {
	key, err := keyFor(table, id)
	if err != nil {
		return fmt.Errorf("failed to build key for Delete: %w", err)
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:           &d.tableName,
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return storeerrors.NewNotFoundError(table, id)
		}
		return d.mapError("DeleteItem", table, id, err)
	}
	return nil
}

// mapError translates DynamoDB failures. Throttling is retryable, failed conditions on writes
// mean the row already exists.
func (d *DataStore) mapError(op, table, id string, err error) error {
	d.logger.Warn("DynamoDB call failed",
		zap.String("op", op),
		zap.String("table", table),
		zap.String("id", id),
		zap.Error(err))

	var cfe *types.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		return storeerrors.NewAlreadyExistsError(table, id)
	}
	var pte *types.ProvisionedThroughputExceededException
	var rle *types.RequestLimitExceeded
	if errors.As(err, &pte) || errors.As(err, &rle) {
		return datastore.Retryable(fmt.Errorf("%s %s: %w", op, table, err))
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}

// itemToRow strips the index map attributes from item and decodes the remaining columns.
func itemToRow(item map[string]types.AttributeValue, indexMap map[string]string) (storagemodels.Row, error) {
	trimmed := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if _, isKey := indexMap[k]; isKey {
			continue
		}
		trimmed[k] = v
	}
	var values map[string]any
	if err := attributevalue.UnmarshalMap(trimmed, &values); err != nil {
		return storagemodels.Row{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if values == nil {
		values = make(map[string]any)
	}
	id, _ := values["id"].(string)
	return storagemodels.Row{ID: id, Values: values}, nil
}
