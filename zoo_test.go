/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/datastore/mock"
	"github.com/suparena/typedmodels/schema"
)

type sayer interface {
	SaySomething() string
}

type says string

func (s says) SaySomething() string { return string(s) }

type zoo struct {
	catalog *typedmodels.Catalog
	store   *mock.DataStore

	animals     *typedmodels.Hierarchy
	animal      *typedmodels.Node
	canine      *typedmodels.Node
	feline      *typedmodels.Node
	bigCat      *typedmodels.Node
	angryBigCat *typedmodels.Node
	parrot      *typedmodels.Node

	vegetables        *typedmodels.Hierarchy
	abstractVegetable *typedmodels.Node
	fruit             *typedmodels.Node
	vegetable         *typedmodels.Node
}

func newZoo(t *testing.T) *zoo {
	t.Helper()
	z := &zoo{catalog: typedmodels.NewCatalog(), store: mock.New()}
	require.NoError(t, z.catalog.RegisterDataStore(typedmodels.DefaultDB, z.store))

	var err error
	z.animals, err = z.catalog.NewHierarchy("testapp", "Animal",
		typedmodels.WithDataStore(z.store),
		typedmodels.WithFields(
			&schema.Field{Name: "name", Type: schema.TypeString, MaxLength: 255},
			&schema.Field{Name: "unique_identifiers", Type: schema.TypeGenericRelation, Private: true, Related: "UniqueIdentifier"},
		))
	require.NoError(t, err)
	h := z.animals
	z.animal = h.Root()
	z.canine = h.MustDeclare("Canine", nil, typedmodels.WithBehavior(says("woof")))
	z.feline = h.MustDeclare("Feline", nil,
		typedmodels.WithBehavior(says("meoww")),
		typedmodels.WithFields(&schema.Field{Name: "mice_eaten", Type: schema.TypeInt, Default: 0}))
	z.bigCat = h.MustDeclare("BigCat", z.feline, typedmodels.WithBehavior(says("roar")))
	z.angryBigCat = h.MustDeclare("AngryBigCat", z.bigCat,
		typedmodels.WithBehavior(says("raawr")),
		typedmodels.WithFields(&schema.Field{Name: "canines_eaten", Type: schema.TypeManyToMany, Related: "Canine"}))
	z.parrot = h.MustDeclare("Parrot", nil,
		typedmodels.WithBehavior(says("hello")),
		typedmodels.WithFields(&schema.Field{Name: "known_words", Type: schema.TypeInt, Null: true}))

	z.vegetables, err = z.catalog.NewHierarchy("testapp", "AbstractVegetable",
		typedmodels.WithDataStore(z.store),
		typedmodels.WithDefaultScope(func(m *typedmodels.Manager) *typedmodels.Manager {
			return m.OrderBy("name")
		}),
		typedmodels.WithFields(
			&schema.Field{Name: "name", Type: schema.TypeString, MaxLength: 255},
			&schema.Field{Name: "color", Type: schema.TypeString, MaxLength: 255},
			&schema.Field{Name: "yumness", Type: schema.TypeFloat},
		))
	require.NoError(t, err)
	z.abstractVegetable = z.vegetables.Root()
	z.fruit = z.vegetables.MustDeclare("Fruit", nil)
	z.vegetable = z.vegetables.MustDeclare("Vegetable", nil)
	return z
}

func fieldNames(fields []*schema.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func classNames(records []*typedmodels.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Class().Name()
	}
	return out
}

func types(records []*typedmodels.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Type()
	}
	return out
}
