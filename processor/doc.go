/*
Package processor declares typed hierarchies from YAML files.

A declaration file names an application and its hierarchies. Each hierarchy has a root with its
own fields and a tree of subclasses; subclass fields are merged into the root's table. An
optional indexmap registers the key templates used by the DynamoDB backend for the table:

	app: testapp
	hierarchies:
	  - name: Animal
	    indexmap:
	      PK: "ZOO#{table}"
	      SK: "ANIMAL#{id}"
	    fields:
	      - {name: name, type: string, max_length: 255}
	    types:
	      - name: Canine
	      - name: Feline
	        fields:
	          - {name: mice_eaten, type: int, default: 0}
	        types:
	          - name: BigCat

Apply declares everything in file order, roots first and subclasses depth first:

	file, err := processor.LoadFile("zoo.yaml")
	hierarchies, err := file.Apply(catalog, typedmodels.WithDataStore(store))
*/
package processor
