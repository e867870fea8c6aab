/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/typedmodels/registry"
	"github.com/suparena/typedmodels/storagemodels"
)

var comparators = map[storagemodels.Operator]string{
	storagemodels.OpEq:  "=",
	storagemodels.OpNeq: "<>",
	storagemodels.OpGt:  ">",
	storagemodels.OpGte: ">=",
	storagemodels.OpLt:  "<",
	storagemodels.OpLte: "<=",
}

// expression accumulates the placeholders of a Query input.
type expression struct {
	names  map[string]string
	values map[string]types.AttributeValue
	byName map[string]string
}

func newExpression() *expression {
	return &expression{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
		byName: make(map[string]string),
	}
}

func (e *expression) name(field string) string {
	if p, ok := e.byName[field]; ok {
		return p
	}
	p := fmt.Sprintf("#f%d", len(e.byName))
	e.byName[field] = p
	e.names[p] = field
	return p
}

func (e *expression) value(v any) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", err
	}
	p := fmt.Sprintf(":v%d", len(e.values))
	e.values[p] = av
	return p, nil
}

// buildQueryInput translates q into a partition Query. The second result is false when q can
// match nothing, e.g. for an empty IN set, and no request is needed.
func (d *DataStore) buildQueryInput(q *storagemodels.Query) (*sdk.QueryInput, bool, error) {
	indexMap := registry.IndexMapFor(q.Table)
	for _, m := range macros(indexMap["PK"]) {
		if m != "table" {
			return nil, false, fmt.Errorf("partition key of %s depends on {%s}; only per-table partitions can be queried", q.Table, m)
		}
	}
	pk := expandMacros(map[string]string{"PK": indexMap["PK"]}, q.Table, nil)["PK"]

	e := newExpression()
	pkVal, err := e.value(pk)
	if err != nil {
		return nil, false, err
	}
	input := &sdk.QueryInput{
		TableName:              &d.tableName,
		KeyConditionExpression: aws.String(e.name("PK") + " = " + pkVal),
	}

	var filters []string
	for _, c := range q.Conditions {
		field := e.name(c.Field)
		if c.Operator == storagemodels.OpIn {
			set, ok := c.Value.([]string)
			if !ok {
				return nil, false, fmt.Errorf("IN condition on %s needs a string set", c.Field)
			}
			if len(set) == 0 {
				return nil, false, nil
			}
			placeholders := make([]string, len(set))
			for i, v := range set {
				if placeholders[i], err = e.value(v); err != nil {
					return nil, false, err
				}
			}
			filters = append(filters, fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")))
			continue
		}
		op, ok := comparators[c.Operator]
		if !ok {
			return nil, false, fmt.Errorf("unsupported operator %q", c.Operator)
		}
		if c.Value == nil {
			switch c.Operator {
			case storagemodels.OpEq:
				filters = append(filters, fmt.Sprintf("(attribute_not_exists(%s) OR attribute_type(%s, :null))", field, field))
				e.values[":null"] = &types.AttributeValueMemberS{Value: "NULL"}
				continue
			case storagemodels.OpNeq:
				filters = append(filters, fmt.Sprintf("(attribute_exists(%s) AND NOT attribute_type(%s, :null))", field, field))
				e.values[":null"] = &types.AttributeValueMemberS{Value: "NULL"}
				continue
			}
		}
		val, err := e.value(c.Value)
		if err != nil {
			return nil, false, err
		}
		filters = append(filters, fmt.Sprintf("%s %s %s", field, op, val))
	}
	if len(filters) > 0 {
		input.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}

	if q.Fields != nil {
		input.ProjectionExpression = aws.String(strings.Join(projection(e, q), ", "))
	}

	input.ExpressionAttributeNames = e.names
	input.ExpressionAttributeValues = e.values
	return input, true, nil
}

// projection lists the attributes to fetch: the requested fields plus those needed to match,
// order and identify rows locally.
func projection(e *expression, q *storagemodels.Query) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(f string) {
		if _, ok := seen[f]; ok {
			return
		}
		seen[f] = struct{}{}
		out = append(out, e.name(f))
	}
	add("id")
	for _, f := range q.Fields {
		add(f)
	}
	for _, c := range q.Conditions {
		add(c.Field)
	}
	for _, o := range q.OrderBy {
		add(o.Field)
	}
	return out
}

// Query reads the hierarchy partition of q.Table page by page. Conditions are pushed down as a
// filter expression; ordering, offset, limit and projection are applied to the collected rows.
func (d *DataStore) Query(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error) {
	input, ok, err := d.buildQueryInput(q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	if !ok {
		return []storagemodels.Row{}, nil
	}

	indexMap := registry.IndexMapFor(q.Table)
	var rows []storagemodels.Row
	pages := 0
	for {
		out, err := d.client.Query(ctx, input)
		if err != nil {
			return nil, d.mapError("Query", q.Table, "", err)
		}
		pages++
		for _, item := range out.Items {
			row, err := itemToRow(item, indexMap)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	d.logger.Debug("DynamoDB query",
		zap.String("table", q.Table),
		zap.Int("pages", pages),
		zap.Int("rows", len(rows)))
	return storagemodels.Apply(q, rows), nil
}
