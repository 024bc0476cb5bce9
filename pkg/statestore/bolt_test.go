package statestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elevator-state.db")
	store, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreGetSetExistsDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestBoltStore(t)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, ElevatorKey("1"), []byte(`{"id":"1"}`)))

	exists, err := store.Exists(ctx, ElevatorKey("1"))
	require.NoError(t, err)
	require.True(t, exists)

	val, err := store.Get(ctx, ElevatorKey("1"))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1"}`, string(val))

	require.NoError(t, store.Delete(ctx, ElevatorKey("1")))
	exists, err = store.Exists(ctx, ElevatorKey("1"))
	require.NoError(t, err)
	require.False(t, exists)
}
