/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

All hierarchies share one DynamoDB table (single-table design). The primary key of each row is
built from the index map registered for the hierarchy's table (see registry.RegisterIndexMap),
falling back to registry.DefaultIndexMap:

	registry.DefaultIndexMap = map[string]string{
	    "PK": "MODEL#{table}",   // one partition per hierarchy
	    "SK": "ID#{id}",
	}

Templates may reference any column of the row, plus {table} and {id}. Queries read the
hierarchy partition, push the query conditions (including the discriminator narrowing of the
typed managers) down as a FilterExpression and follow LastEvaluatedKey until the partition is
exhausted. Ordering, offset and limit are applied to the collected rows.

Throttling errors are wrapped as datastore.RetryableError so the streaming pager retries them:

	store, err := ddb.NewDynamodbDataStore(ctx, ddb.Config{Region: "us-east-1", Table: "models"})
	results := datastore.Stream(ctx, store, q, convert,
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	)
*/
package ddb
