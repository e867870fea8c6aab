/*
Package typedmodels implements single-table inheritance for record stores: one root class owns
one table, every subclass stores its fields in that table, and the concrete class of each row is
resolved from its "type" column.

The engine has four parts:
  - a discriminator registry per hierarchy (package registry), with the subtree of every class
  - declaration (Hierarchy.Declare), which merges subclass fields into the root's schema
  - the record lifecycle: Construct, Recast, FromRow and the save guard
  - scoped field introspection, memoized per class

Declaring a hierarchy:

	h, _ := typedmodels.NewHierarchy("testapp", "Animal",
	    typedmodels.WithFields(&schema.Field{Name: "name", Type: schema.TypeString, MaxLength: 255}),
	    typedmodels.WithDataStore(mock.New()))

	feline := h.MustDeclare("Feline", nil,
	    typedmodels.WithFields(&schema.Field{Name: "mice_eaten", Type: schema.TypeInt, Default: 0}))
	bigCat := h.MustDeclare("BigCat", feline)

Fields declared on a subclass must be nullable, have a default or be multi-valued, because rows
of sibling classes leave them empty. Declarations must run sequentially during startup.

Querying:

	cats, _ := feline.Objects().OrderBy("type").All(ctx) // Feline, BigCat and below
	for _, c := range cats {
	    fmt.Println(c.Class().Name(), c.Type())
	}

Every record fetched through any manager is recast to the class registered for its type, unless
the type column was not fetched (Only, Defer). Saving a record without a type fails with an
UntypedSaveError.

Storage backends live in datastore/: mock, ddb (DynamoDB), sqlstore (database/sql) and
redisstore (Redis).
*/
package typedmodels
