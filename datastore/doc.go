/*
Package datastore defines the persistence interface used by typed hierarchies.

A hierarchy stores every class in one table, so the interface works on rows rather than Go
types:

	type DataStore interface {
	    GetOne(ctx context.Context, table, id string) (*storagemodels.Row, error)
	    Put(ctx context.Context, table string, row storagemodels.Row) error
	    Query(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error)
	    Delete(ctx context.Context, table, id string) error
	}

The typed managers narrow every query by discriminator and turn the returned rows into records;
a DataStore never needs to know about classes.

Stream pages through any DataStore with Offset/Limit, retrying failures wrapped with Retryable:

	ch := datastore.Stream(ctx, store, q, convert, storagemodels.WithPageSize(50))
	for res := range ch {
	    if res.Error != nil {
	        // handle
	    }
	}

Implementations:
  - mock: in-memory store for tests
  - ddb: DynamoDB single-table design
  - sqlstore: database/sql (SQLite, PostgreSQL)
  - redisstore: Redis hashes with per-discriminator index sets
*/
package datastore
