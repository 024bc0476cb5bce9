package statestore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreFromClient(client)
}

func TestRedisStoreGetSetExistsDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	exists, err := store.Exists(ctx, "missing")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Set(ctx, "elevator:status:1", []byte(`{"id":"1"}`)))

	exists, err = store.Exists(ctx, "elevator:status:1")
	require.NoError(t, err)
	require.True(t, exists)

	val, err := store.Get(ctx, "elevator:status:1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1"}`, string(val))

	require.NoError(t, store.Delete(ctx, "elevator:status:1"))
	_, err = store.Get(ctx, "elevator:status:1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestElevatorKey(t *testing.T) {
	require.Equal(t, "elevator:status:3", ElevatorKey("3"))
}
