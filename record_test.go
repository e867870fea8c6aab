/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package typedmodels_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/typedmodels"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

func TestCanInstantiateBaseModel(t *testing.T) {
	z := newZoo(t)

	animal, err := z.animal.New(nil)
	require.NoError(t, err)
	assert.Empty(t, animal.Type())
	assert.Equal(t, z.animal, animal.Class())
	assert.True(t, animal.IsNew())

	// recast without a target on an untyped root record is inert
	require.NoError(t, animal.Recast())
	assert.Equal(t, z.animal, animal.Class())
}

func TestConstruct(t *testing.T) {
	z := newZoo(t)

	t.Run("subclass takes its own type", func(t *testing.T) {
		cat, err := z.feline.New(map[string]any{"name": "kitteh"})
		require.NoError(t, err)
		assert.Equal(t, "testapp.feline", cat.Type())
		assert.Equal(t, z.feline, cat.Class())
		assert.Equal(t, int64(0), cat.Value("mice_eaten"))
		assert.Equal(t, []string{}, cat.Value("canines_eaten"))
		assert.Nil(t, cat.Value("known_words"))
	})

	t.Run("positional values follow the merged field order", func(t *testing.T) {
		r, err := z.animal.Construct([]any{"", "testapp.parrot", "polly", nil, 3, nil, "12"}, nil)
		require.NoError(t, err)
		assert.Equal(t, z.parrot, r.Class())
		assert.Equal(t, "polly", r.Value("name"))
		assert.Equal(t, int64(3), r.Value("mice_eaten"))
		assert.Equal(t, int64(12), r.Value("known_words"))
	})

	t.Run("too many positional values", func(t *testing.T) {
		values := make([]any, z.animals.Schema().Len()+1)
		_, err := z.animal.Construct(values, nil)
		var tooMany *errors.TooManyFieldValuesError
		require.ErrorAs(t, err, &tooMany)
		assert.Equal(t, 8, tooMany.Got)
		assert.Equal(t, 7, tooMany.Max)
		assert.False(t, errors.IsFatal(err))
	})

	t.Run("named and positional value for one field", func(t *testing.T) {
		_, err := z.animal.Construct([]any{"", "", "rex"}, map[string]any{"name": "fido"})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := z.canine.New(map[string]any{"wings": 2})
		assert.True(t, errors.IsFieldDoesNotExist(err))
	})

	t.Run("values are coerced", func(t *testing.T) {
		_, err := z.feline.New(map[string]any{"mice_eaten": "lots"})
		assert.True(t, errors.IsValidationError(err))

		cat, err := z.feline.New(map[string]any{"mice_eaten": "7"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), cat.Value("mice_eaten"))
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := z.animal.New(map[string]any{"name": "dingo", "type": "macaroni.buffaloes"})
		assert.True(t, errors.IsInvalidDiscriminator(err))
	})

	t.Run("suppressed recast", func(t *testing.T) {
		r, err := z.animal.Construct(nil, map[string]any{"type": "testapp.canine"}, typedmodels.SuppressRecast())
		require.NoError(t, err)
		assert.Equal(t, z.animal, r.Class())
		assert.Equal(t, "testapp.canine", r.Type())
	})
}

func TestRecast(t *testing.T) {
	z := newZoo(t)
	newCat := func(t *testing.T) *typedmodels.Record {
		cat, err := z.feline.New(map[string]any{"name": "kitteh"})
		require.NoError(t, err)
		return cat
	}

	t.Run("auto", func(t *testing.T) {
		cat := newCat(t)
		require.NoError(t, cat.Set("type", "testapp.bigcat"))
		assert.Equal(t, z.feline, cat.Class())
		require.NoError(t, cat.Recast())
		assert.Equal(t, "testapp.bigcat", cat.Type())
		assert.Equal(t, z.bigCat, cat.Class())
	})

	t.Run("string", func(t *testing.T) {
		cat := newCat(t)
		require.NoError(t, cat.RecastTo("testapp.bigcat"))
		assert.Equal(t, "testapp.bigcat", cat.Type())
		assert.Equal(t, z.bigCat, cat.Class())
		assert.Equal(t, "kitteh", cat.Value("name"))
	})

	t.Run("class", func(t *testing.T) {
		cat := newCat(t)
		require.NoError(t, cat.RecastToNode(z.bigCat))
		assert.Equal(t, "testapp.bigcat", cat.Type())
		assert.Equal(t, z.bigCat, cat.Class())
	})

	t.Run("idempotent", func(t *testing.T) {
		cat := newCat(t)
		require.NoError(t, cat.RecastToNode(z.angryBigCat))
		require.NoError(t, cat.RecastToNode(z.angryBigCat))
		assert.Equal(t, "testapp.angrybigcat", cat.Type())
		assert.Equal(t, z.angryBigCat, cat.Class())

		other := newCat(t)
		require.NoError(t, other.RecastTo(z.angryBigCat.Discriminator()))
		assert.Equal(t, cat.Type(), other.Type())
		assert.Equal(t, cat.Class(), other.Class())
	})

	t.Run("rejects other hierarchies", func(t *testing.T) {
		cat := newCat(t)
		for _, target := range []*typedmodels.Node{z.abstractVegetable, z.vegetable, z.animal} {
			err := cat.RecastToNode(target)
			assert.True(t, errors.IsInvalidDiscriminator(err), target.Name())
			assert.False(t, errors.IsFatal(err))
		}
		for _, target := range []string{"typedmodels.abstractvegetable", "testapp.vegetable", "", "testapp.animal"} {
			assert.True(t, errors.IsInvalidDiscriminator(cat.RecastTo(target)), target)
		}
		assert.EqualError(t, cat.RecastTo("testapp.vegetable"), `invalid Animal identifier: "testapp.vegetable"`)

		// a failed recast leaves the record untouched
		assert.Equal(t, "testapp.feline", cat.Type())
		assert.Equal(t, z.feline, cat.Class())
	})

	t.Run("explicit recast of an untyped record", func(t *testing.T) {
		animal, err := z.animal.New(nil)
		require.NoError(t, err)
		require.NoError(t, animal.RecastToNode(z.feline))
		assert.Equal(t, "testapp.feline", animal.Type())
		assert.Equal(t, z.feline, animal.Class())

		animal, err = z.animal.New(nil)
		require.NoError(t, err)
		require.NoError(t, animal.RecastTo("testapp.feline"))
		assert.Equal(t, z.feline, animal.Class())
	})

	t.Run("zero record has no registry", func(t *testing.T) {
		var r typedmodels.Record
		err := r.Recast()
		assert.ErrorIs(t, err, errors.ErrNoRegistryFound)
		assert.True(t, errors.IsFatal(err))
	})
}

func TestCheckSave(t *testing.T) {
	z := newZoo(t)

	animal, err := z.animal.New(map[string]any{"name": "uhoh"})
	require.NoError(t, err)
	err = animal.CheckSave()
	assert.True(t, errors.IsUntypedSave(err))
	assert.EqualError(t, err, "untyped Animal cannot be saved")

	require.NoError(t, animal.RecastTo("testapp.canine"))
	assert.NoError(t, animal.CheckSave())
}

func TestFromRow(t *testing.T) {
	z := newZoo(t)

	t.Run("full row is downcast", func(t *testing.T) {
		r, err := z.animal.FromRow(storagemodels.Row{
			ID:     "42",
			Values: map[string]any{"type": "testapp.angrybigcat", "name": "mufasa", "mice_eaten": "5", "canines_eaten": `["1","2"]`},
		}, "default")
		require.NoError(t, err)
		assert.Equal(t, z.angryBigCat, r.Class())
		assert.Equal(t, "42", r.ID())
		assert.Equal(t, "default", r.DB())
		assert.False(t, r.IsNew())
		assert.Equal(t, int64(5), r.Value("mice_eaten"))
		assert.Equal(t, []string{"1", "2"}, r.Value("canines_eaten"))
		assert.Empty(t, r.Deferred())
	})

	t.Run("deferred type is not recast", func(t *testing.T) {
		r, err := z.animal.FromRow(storagemodels.Row{
			ID:      "42",
			Values:  map[string]any{"id": "42"},
			Fetched: []string{"id"},
		}, "default")
		require.NoError(t, err)
		assert.Equal(t, z.animal, r.Class())
		assert.Contains(t, r.Deferred(), "type")
		assert.Contains(t, r.Deferred(), "name")

		_, err = r.Get("name")
		assert.True(t, errors.IsDeferredField(err))

		r, err = z.vegetable.FromRow(storagemodels.Row{ID: "7", Fetched: []string{"id"}}, "default")
		require.NoError(t, err)
		assert.Equal(t, z.vegetable, r.Class())
	})

	t.Run("unregistered type", func(t *testing.T) {
		_, err := z.animal.FromRow(storagemodels.Row{ID: "1", Values: map[string]any{"type": "testapp.dodo"}}, "default")
		assert.True(t, errors.IsInvalidDiscriminator(err))
	})
}

func TestRecordAccessors(t *testing.T) {
	z := newZoo(t)

	angry, err := z.angryBigCat.New(map[string]any{"name": "mufasa"})
	require.NoError(t, err)

	require.NoError(t, angry.AddRelated("canines_eaten", "fido", "rex", "fido"))
	assert.Equal(t, []string{"fido", "rex"}, angry.Value("canines_eaten"))
	assert.True(t, errors.IsValidationError(angry.AddRelated("name", "x")))
	assert.True(t, errors.IsFieldDoesNotExist(angry.AddRelated("wings", "x")))
	assert.True(t, errors.IsFieldDoesNotExist(angry.Set("wings", 2)))
	_, err = angry.Get("wings")
	assert.True(t, errors.IsFieldDoesNotExist(err))

	values := angry.Values()
	assert.Contains(t, values, "mice_eaten")
	assert.Contains(t, values, "canines_eaten")
	assert.NotContains(t, values, "known_words")

	row := angry.Row()
	assert.Contains(t, row.Values, "known_words")
	assert.Equal(t, "testapp.angrybigcat", row.Values["type"])
}

func TestBehaviorDispatch(t *testing.T) {
	z := newZoo(t)

	cat, err := z.feline.New(map[string]any{"name": "kitteh"})
	require.NoError(t, err)
	s, ok := typedmodels.BehaviorAs[sayer](cat)
	require.True(t, ok)
	assert.Equal(t, "meoww", s.SaySomething())

	require.NoError(t, cat.RecastToNode(z.angryBigCat))
	s, _ = typedmodels.BehaviorAs[sayer](cat)
	assert.Equal(t, "raawr", s.SaySomething())

	// inherited from the closest ancestor
	lion := z.animals.MustDeclare("Lion", z.bigCat)
	r, err := lion.New(nil)
	require.NoError(t, err)
	s, _ = typedmodels.BehaviorAs[sayer](r)
	assert.Equal(t, "roar", s.SaySomething())

	animal, err := z.animal.New(nil)
	require.NoError(t, err)
	_, ok = typedmodels.BehaviorAs[sayer](animal)
	assert.False(t, ok)
}
