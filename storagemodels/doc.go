/*
Package storagemodels defines the data structures shared by every storage backend.

Query:
A backend-neutral read against the hierarchy's table:

	q := &storagemodels.Query{
	    Table:      "testapp_animal",
	    Conditions: []storagemodels.Condition{storagemodels.In("type", "testapp.feline", "testapp.bigcat")},
	    OrderBy:    []storagemodels.Order{{Field: "type"}},
	    Fields:     []string{"id", "name"}, // nil fetches the whole row
	}

Row:
A stored row, with the list of columns that were actually fetched. A row loaded without its
discriminator column cannot be downcast, which the typed layer relies on.

Backends that cannot push a query down (key-value stores, the in-memory mock) load candidate
rows and call Apply, which filters, sorts, pages and projects them the same way every time.

StreamOptions:
Configuration for paged streaming:

	opts := []storagemodels.StreamOption{
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	}
*/
package storagemodels
