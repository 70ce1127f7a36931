package state_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/ragdex/internal/state"
)

func openDB(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := state.Open(dir)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, filepath.Join(dir, "state.db"), db.Path())
}

func TestActiveStoreRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	id, err := db.ActiveStore(ctx)
	require.NoError(t, err)
	assert.Empty(t, id, "fresh database has no selection")

	require.NoError(t, db.SetActiveStore(ctx, "store-a"))
	require.NoError(t, db.SetActiveStore(ctx, "store-b"))

	id, err = db.ActiveStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "store-b", id, "later selection wins")
}

func TestSaveOperationUpserts(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	op := state.Operation{
		ID:           "operations/1",
		StoreID:      "store-a",
		DisplayName:  "doc.pdf",
		FriendlyName: "doc.pdf",
		Status:       "processing",
	}
	require.NoError(t, db.SaveOperation(ctx, op))

	op.Status = "success"
	op.DocumentPath = "documents/abc"
	require.NoError(t, db.SaveOperation(ctx, op))

	got, err := db.Operation(ctx, "operations/1")
	require.NoError(t, err)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "documents/abc", got.DocumentPath)
	assert.Equal(t, "doc.pdf", got.FriendlyName)
}

func TestOperationsFilteredByStore(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveOperation(ctx, state.Operation{ID: "op-1", StoreID: "store-a", Status: "processing"}))
	require.NoError(t, db.SaveOperation(ctx, state.Operation{ID: "op-2", StoreID: "store-a", Status: "error"}))
	require.NoError(t, db.SaveOperation(ctx, state.Operation{ID: "op-3", StoreID: "store-b", Status: "processing"}))

	ops, err := db.Operations(ctx, "store-a")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	ids := []string{ops[0].ID, ops[1].ID}
	assert.ElementsMatch(t, []string{"op-1", "op-2"}, ids)
}

func TestDeleteOperation(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveOperation(ctx, state.Operation{ID: "op-1", StoreID: "store-a", Status: "success"}))
	require.NoError(t, db.DeleteOperation(ctx, "op-1"))

	_, err := db.Operation(ctx, "op-1")
	assert.ErrorIs(t, err, state.ErrNotFound)

	// Deleting an absent row is not an error.
	assert.NoError(t, db.DeleteOperation(ctx, "op-1"))
}

func TestClearOperations(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveOperation(ctx, state.Operation{ID: "op-1", StoreID: "store-a", Status: "processing"}))
	require.NoError(t, db.SaveOperation(ctx, state.Operation{ID: "op-2", StoreID: "store-b", Status: "processing"}))

	require.NoError(t, db.ClearOperations(ctx, "store-a"))

	ops, err := db.Operations(ctx, "store-a")
	require.NoError(t, err)
	assert.Empty(t, ops)

	ops, err = db.Operations(ctx, "store-b")
	require.NoError(t, err)
	assert.Len(t, ops, 1, "other stores are untouched")
}
