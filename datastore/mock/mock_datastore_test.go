/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"testing"

	"github.com/suparena/typedmodels/datastore"
	"github.com/suparena/typedmodels/datastore/mock"
	"github.com/suparena/typedmodels/errors"
	"github.com/suparena/typedmodels/storagemodels"
)

var _ datastore.DataStore = (*mock.DataStore)(nil)

func row(id, typ, name string) storagemodels.Row {
	return storagemodels.Row{ID: id, Values: map[string]any{"type": typ, "name": name}}
}

func TestMockDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		mockStore := mock.New()

		err := mockStore.Put(ctx, "animal", row("123", "zoo.canine", "Rex"))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		retrieved, err := mockStore.GetOne(ctx, "animal", "123")
		if err != nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if retrieved.ID != "123" || retrieved.Values["name"] != "Rex" || retrieved.Values["id"] != "123" {
			t.Fatalf("Retrieved row mismatch: %+v", retrieved)
		}

		// Returned rows are copies.
		retrieved.Values["name"] = "changed"
		again, _ := mockStore.GetOne(ctx, "animal", "123")
		if again.Values["name"] != "Rex" {
			t.Fatalf("stored row was mutated through a returned copy")
		}

		err = mockStore.Delete(ctx, "animal", "123")
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		_, err = mockStore.GetOne(ctx, "animal", "123")
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
		if err := mockStore.Delete(ctx, "animal", "123"); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error on second delete, got: %v", err)
		}
	})

	t.Run("RejectsRowWithoutID", func(t *testing.T) {
		mockStore := mock.New()
		err := mockStore.Put(ctx, "animal", storagemodels.Row{Values: map[string]any{"type": "zoo.canine"}})
		if !errors.IsValidationError(err) {
			t.Fatalf("Expected validation error, got: %v", err)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		mockStore := mock.New()

		putErr := errors.NewValidationError("name", "required")
		mockStore.WithPutError(putErr)
		if err := mockStore.Put(ctx, "animal", row("1", "zoo.canine", "Rex")); err != putErr {
			t.Fatalf("Expected put error, got: %v", err)
		}

		deleteErr := errors.NewNotFoundError("animal", "1")
		mockStore.WithDeleteError(deleteErr)
		if err := mockStore.Delete(ctx, "animal", "1"); err != deleteErr {
			t.Fatalf("Expected delete error, got: %v", err)
		}

		queryErr := datastore.Retryable(errors.ErrInvalidInput)
		mockStore.WithQueryError(queryErr)
		if _, err := mockStore.Query(ctx, &storagemodels.Query{Table: "animal"}); err != queryErr {
			t.Fatalf("Expected query error, got: %v", err)
		}
	})

	t.Run("Query", func(t *testing.T) {
		mockStore := mock.New()
		for _, r := range []storagemodels.Row{
			row("1", "zoo.feline", "Tom"),
			row("2", "zoo.canine", "Rex"),
			row("3", "zoo.bigcat", "Leo"),
		} {
			if err := mockStore.Put(ctx, "animal", r); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		all, err := mockStore.Query(ctx, &storagemodels.Query{Table: "animal"})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(all) != 3 || all[0].ID != "1" || all[2].ID != "3" {
			t.Fatalf("Expected rows in insertion order, got %+v", all)
		}

		cats, err := mockStore.Query(ctx, &storagemodels.Query{
			Table:      "animal",
			Conditions: []storagemodels.Condition{storagemodels.In("type", "zoo.feline", "zoo.bigcat")},
			OrderBy:    []storagemodels.Order{{Field: "name", Desc: true}},
			Fields:     []string{"name"},
		})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(cats) != 2 || cats[0].Values["name"] != "Tom" || cats[1].Values["name"] != "Leo" {
			t.Fatalf("Unexpected filtered rows: %+v", cats)
		}
		if cats[0].HasField("type") {
			t.Fatalf("Projected row should not report type as fetched")
		}

		if n := len(mockStore.Queries()); n != 2 {
			t.Fatalf("Expected 2 recorded queries, got %d", n)
		}
	})

	t.Run("CustomQueryFunction", func(t *testing.T) {
		mockStore := mock.New()
		mockStore.WithQueryFunc(func(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error) {
			return []storagemodels.Row{row("1", "zoo.canine", "Filtered")}, nil
		})

		results, err := mockStore.Query(ctx, &storagemodels.Query{Table: "animal"})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("Expected 1 result, got %d", len(results))
		}
	})

	t.Run("HelperMethods", func(t *testing.T) {
		mockStore := mock.New()
		mockStore.SetData("animal", []storagemodels.Row{
			row("1", "zoo.canine", "One"),
			row("2", "zoo.feline", "Two"),
		})

		if mockStore.Count() != 2 {
			t.Fatalf("Expected count 2, got %d", mockStore.Count())
		}
		if data := mockStore.GetData("animal"); len(data) != 2 {
			t.Fatalf("Expected 2 items in data, got %d", len(data))
		}

		mockStore.Clear()
		if mockStore.Count() != 0 {
			t.Fatalf("Expected count 0 after clear, got %d", mockStore.Count())
		}
	})
}
