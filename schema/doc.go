/*
Package schema describes the fields of a typed hierarchy and the merged schema they live in.

A Field carries the column definition (type, nullability, default, relation target) and the
class that declared it. Two declarations of the same name are compatible when Equivalent
reports true, which ignores name and owner.

Schema is the single physical schema of a hierarchy. The root's fields are its own fields;
subclasses Contribute theirs:

	s, _ := schema.New("testapp_animal", idField, typeField, nameField)
	s.Contribute("Feline", &schema.Field{Name: "mice_eaten", Type: schema.TypeInt, Default: int64(0)})

Coerce turns loosely typed input (form values, decoded rows) into canonical values, and
Storable turns canonical values into ones every backend can persist.
*/
package schema
