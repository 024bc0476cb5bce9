package statestore

import (
	"context"
	"errors"

	"github.com/elevatorsim/controlplane/pkg/errs"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store backend, backed by a single
// Redis key per elevator snapshot.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore dials addr and returns a ready Store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewRedisStoreFromClient wraps an already-constructed client, used by
// app.NewDeps to share one client with the broker and by tests against
// a miniredis instance.
func NewRedisStoreFromClient(c *redis.Client) *RedisStore {
	return &RedisStore{client: c}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Store("redis get failed", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errs.Store("redis set failed", err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errs.Store("redis exists failed", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errs.Store("redis delete failed", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
