/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/datastore/mock"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

// populate creates kitteh and cheetah (Feline), fido (Canine), simba (BigCat) and
// mufasa (AngryBigCat).
func populate(t *testing.T, z *zoo) map[string]*typedmodels.Record {
	t.Helper()
	ctx := context.Background()
	out := make(map[string]*typedmodels.Record)
	for _, a := range []struct {
		node *typedmodels.Node
		name string
	}{
		{z.feline, "kitteh"},
		{z.feline, "cheetah"},
		{z.canine, "fido"},
		{z.bigCat, "simba"},
		{z.angryBigCat, "mufasa"},
	} {
		r, err := a.node.Objects().Create(ctx, map[string]any{"name": a.name})
		require.NoError(t, err)
		out[a.name] = r
	}
	return out
}

func TestManagerNarrowing(t *testing.T) {
	z := newZoo(t)

	assert.Nil(t, z.animal.Objects().Narrowing())
	assert.Equal(t, &storagemodels.Condition{Field: "type", Operator: storagemodels.OpEq, Value: "testapp.canine"},
		z.canine.Objects().Narrowing())
	assert.Equal(t, storagemodels.In("type", "testapp.feline", "testapp.bigcat", "testapp.angrybigcat"),
		*z.feline.Objects().Narrowing())

	q := z.bigCat.Objects().Where(storagemodels.Eq("name", "simba")).OrderBy("-name").Limit(3).Query()
	assert.Equal(t, "testapp_animal", q.Table)
	require.Len(t, q.Conditions, 2)
	assert.Equal(t, "type", q.Conditions[0].Field)
	assert.Equal(t, []storagemodels.Order{{Field: "name", Desc: true}}, q.OrderBy)
	assert.Equal(t, 3, q.Limit)
	assert.Nil(t, q.Fields)
}

func TestBaseModelQueryset(t *testing.T) {
	z := newZoo(t)
	populate(t, z)
	ctx := context.Background()

	all, err := z.animal.Objects().OrderBy("type").All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"testapp.angrybigcat",
		"testapp.bigcat",
		"testapp.canine",
		"testapp.feline",
		"testapp.feline",
	}, types(all))
	assert.Equal(t, []string{"AngryBigCat", "BigCat", "Canine", "Feline", "Feline"}, classNames(all))
}

func TestSubclassQuerysets(t *testing.T) {
	z := newZoo(t)
	populate(t, z)
	ctx := context.Background()

	tests := []struct {
		node    *typedmodels.Node
		types   []string
		classes []string
	}{
		{z.canine, []string{"testapp.canine"}, []string{"Canine"}},
		{z.feline,
			[]string{"testapp.angrybigcat", "testapp.bigcat", "testapp.feline", "testapp.feline"},
			[]string{"AngryBigCat", "BigCat", "Feline", "Feline"}},
		{z.bigCat, []string{"testapp.angrybigcat", "testapp.bigcat"}, []string{"AngryBigCat", "BigCat"}},
		{z.angryBigCat, []string{"testapp.angrybigcat"}, []string{"AngryBigCat"}},
		{z.parrot, []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.node.Name(), func(t *testing.T) {
			qs := tt.node.Objects().OrderBy("type")
			n, err := qs.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, len(tt.types), n)

			records, err := qs.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.types, types(records))
			assert.Equal(t, tt.classes, classNames(records))
		})
	}
}

func TestRecastFetchedRecord(t *testing.T) {
	z := newZoo(t)
	populate(t, z)
	ctx := context.Background()

	cat, err := z.feline.Objects().Where(storagemodels.Eq("name", "kitteh")).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, z.feline, cat.Class())

	require.NoError(t, cat.RecastTo("testapp.bigcat"))
	assert.Equal(t, "testapp.bigcat", cat.Type())
	assert.Equal(t, z.bigCat, cat.Class())

	assert.True(t, errors.IsInvalidDiscriminator(cat.RecastToNode(z.vegetable)))

	require.NoError(t, z.feline.Objects().Save(ctx, cat))
	n, err := z.bigCat.Objects().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSaveGuard(t *testing.T) {
	z := newZoo(t)
	ctx := context.Background()

	_, err := z.animal.Objects().Create(ctx, map[string]any{"name": "uhoh"})
	assert.True(t, errors.IsUntypedSave(err))
	assert.Zero(t, z.store.Count())

	dingo, err := z.animal.Objects().Create(ctx, map[string]any{"name": "dingo", "type": "testapp.canine"})
	require.NoError(t, err)
	assert.Equal(t, z.canine, dingo.Class())
	assert.False(t, dingo.IsNew())
	assert.Equal(t, typedmodels.DefaultDB, dingo.DB())
	_, err = uuid.Parse(dingo.ID())
	assert.NoError(t, err)

	_, err = z.animal.Objects().Create(ctx, map[string]any{"name": "dingo", "type": "macaroni.buffaloes"})
	assert.True(t, errors.IsInvalidDiscriminator(err))

	// setting a bogus type by hand is caught when saving
	require.NoError(t, dingo.Set("type", "testapp.dodo"))
	assert.True(t, errors.IsInvalidDiscriminator(z.animal.Objects().Save(ctx, dingo)))
}

func TestFieldsInSubclasses(t *testing.T) {
	z := newZoo(t)
	animals := populate(t, z)
	ctx := context.Background()

	angry := animals["mufasa"]
	require.NoError(t, angry.Set("mice_eaten", 5))
	require.NoError(t, angry.AddRelated("canines_eaten", animals["fido"].ID()))
	require.NoError(t, z.angryBigCat.Objects().Save(ctx, angry))

	again, err := z.angryBigCat.Objects().Get(ctx, angry.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.Value("mice_eaten"))
	assert.Equal(t, []string{animals["fido"].ID()}, again.Value("canines_eaten"))

	parrot, err := z.parrot.Objects().Create(ctx, map[string]any{"name": "Kajtek"})
	require.NoError(t, err)
	require.NoError(t, parrot.Set("known_words", 500))
	require.NoError(t, z.parrot.Objects().Save(ctx, parrot))
	again, err = z.parrot.Objects().Get(ctx, parrot.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(500), again.Value("known_words"))
}

func TestManagerGet(t *testing.T) {
	z := newZoo(t)
	animals := populate(t, z)
	ctx := context.Background()

	fido := animals["fido"]
	r, err := z.animal.Objects().Get(ctx, fido.ID())
	require.NoError(t, err)
	assert.Equal(t, z.canine, r.Class())

	_, err = z.feline.Objects().Get(ctx, fido.ID())
	assert.True(t, errors.IsNotFound(err))

	_, err = z.animal.Objects().Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	_, err = z.parrot.Objects().First(ctx)
	assert.True(t, errors.IsNotFound(err))
}

func TestQuerysetDefer(t *testing.T) {
	z := newZoo(t)
	ctx := context.Background()
	for _, v := range []struct {
		node  *typedmodels.Node
		name  string
		color string
		yum   float64
	}{
		{z.vegetable, "cauliflower", "white", 1},
		{z.vegetable, "spinach", "green", 5},
		{z.vegetable, "sweetcorn", "yellow", 10},
		{z.fruit, "Apple", "red", 7},
	} {
		_, err := v.node.Objects().Create(ctx, map[string]any{"name": v.name, "color": v.color, "yumness": v.yum})
		require.NoError(t, err)
	}

	t.Run("defer keeps the type", func(t *testing.T) {
		records, err := z.abstractVegetable.Objects().Defer("yumness").All(ctx)
		require.NoError(t, err)
		require.Len(t, records, 4)
		for _, r := range records {
			assert.NotEqual(t, z.abstractVegetable, r.Class())
			assert.Equal(t, []string{"yumness"}, r.Deferred())
			_, err := r.Get("yumness")
			assert.True(t, errors.IsDeferredField(err))

			require.NoError(t, z.abstractVegetable.Objects().Refresh(ctx, r))
			assert.IsType(t, float64(0), r.Value("yumness"))
		}
	})

	t.Run("only id is not downcast", func(t *testing.T) {
		records, err := z.abstractVegetable.Objects().Only("id").All(ctx)
		require.NoError(t, err)
		require.Len(t, records, 4)
		for _, r := range records {
			assert.Equal(t, z.abstractVegetable, r.Class())
		}

		records, err = z.vegetable.Objects().Only("id").All(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, z.vegetable, records[0].Class())
	})

	t.Run("only id records can be saved", func(t *testing.T) {
		records, err := z.abstractVegetable.Objects().Only("id").Limit(1).All(ctx)
		require.NoError(t, err)
		r := records[0]
		require.NoError(t, z.abstractVegetable.Objects().Save(ctx, r))
		assert.NotEqual(t, z.abstractVegetable, r.Class())
		assert.Empty(t, r.Deferred())
		assert.Equal(t, "Apple", r.Value("name"))
	})

	t.Run("subclass fields of other branches", func(t *testing.T) {
		populate(t, z)
		records, err := z.animal.Objects().Only("id").All(ctx)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for _, r := range records {
			assert.Equal(t, z.animal, r.Class())
		}
	})
}

func TestDefaultScope(t *testing.T) {
	z := newZoo(t)

	q := z.vegetable.Objects().Query()
	assert.Equal(t, []storagemodels.Order{{Field: "name"}}, q.OrderBy)
	require.NotEmpty(t, q.Conditions)
	assert.Equal(t, storagemodels.Eq("type", "testapp.vegetable"), q.Conditions[0])

	// a plain manager bypasses the scope but keeps the narrowing
	plain := z.vegetable.Manager(z.store).Query()
	assert.Empty(t, plain.OrderBy)
	assert.Equal(t, storagemodels.Eq("type", "testapp.vegetable"), plain.Conditions[0])
}

func TestManagerValidation(t *testing.T) {
	z := newZoo(t)
	ctx := context.Background()

	_, err := z.parrot.Objects().Where(storagemodels.Eq("mice_eaten", 1)).All(ctx)
	assert.True(t, errors.IsFieldDoesNotExist(err))

	_, err = z.angryBigCat.Objects().OrderBy("canines_eaten").All(ctx)
	assert.True(t, errors.IsValidationError(err))

	_, err = z.canine.Objects().Only("angrybigcat_set").Count(ctx)
	assert.True(t, errors.IsValidationError(err))

	_, err = z.canine.Manager(nil).All(ctx)
	assert.Error(t, err)

	_, err = z.canine.Objects().Using("replica").All(ctx)
	assert.Error(t, err)
}

func TestUsingAlias(t *testing.T) {
	z := newZoo(t)
	ctx := context.Background()
	replica := mock.New()
	require.NoError(t, z.catalog.RegisterDataStore("replica", replica))

	r, err := z.canine.Objects().Using("replica").Create(ctx, map[string]any{"name": "fido"})
	require.NoError(t, err)
	assert.Equal(t, "replica", r.DB())
	assert.Equal(t, 1, replica.Count())
	assert.Zero(t, z.store.Count())

	records, err := z.animal.Objects().Using("replica").All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "replica", records[0].DB())
}

func TestDeleteAndStream(t *testing.T) {
	z := newZoo(t)
	animals := populate(t, z)
	ctx := context.Background()

	require.NoError(t, z.animal.Objects().Delete(ctx, animals["fido"]))
	assert.True(t, errors.IsNotFound(z.animal.Objects().Delete(ctx, animals["fido"])))

	var got []string
	for res := range z.feline.Objects().OrderBy("name").Stream(ctx, storagemodels.WithPageSize(2)) {
		require.NoError(t, res.Error)
		got = append(got, res.Item.Class().Name()+":"+res.Item.Value("name").(string))
	}
	assert.Equal(t, []string{"Feline:cheetah", "Feline:kitteh", "AngryBigCat:mufasa", "BigCat:simba"}, got)

	for res := range z.feline.Manager(nil).Stream(ctx) {
		assert.Error(t, res.Error)
	}
}
