/*
Package registry holds the type registry of a typed hierarchy and the key templates used by
storage backends.

Type Registry:
Maps discriminator strings to the classes of one hierarchy and keeps a subtree index per class:

	reg := registry.New[*Node](func(n *Node) string { return n.Name() })
	reg.Track(animal)                                 // root: tracks, no discriminator
	reg.Register("testapp.feline", feline, animal)   // animal's subtree gains "testapp.feline"
	reg.Register("testapp.bigcat", bigcat, feline, animal)

	reg.SubtreeFor(feline) // ["testapp.feline", "testapp.bigcat"]

Registering the same discriminator for two classes fails with a DuplicateRegistrationError.
A hierarchy's registry is written during startup only and read lock-free afterwards.

Index Map Registry:
Associates a table with key patterns for key-value backends:

	registry.RegisterIndexMap("testapp_animal", map[string]string{
	    "PK": "MODEL#{table}",
	    "SK": "ID#{id}",
	})

Tables without an entry use DefaultIndexMap.
*/
package registry
