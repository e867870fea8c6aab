// Package serializers writes typed records as JSON or YAML documents and reads them back.
//
// Every object is labelled with the root of its hierarchy:
//
//	[{"model": "testapp.Animal", "pk": "1", "fields": {"type": "testapp.canine", "name": "fido"}}]
//
// Deserializing goes through the root class, which recasts each record to the class its type
// names.
package serializers
