package statestore

import (
	"context"

	"github.com/elevatorsim/controlplane/pkg/errs"
	bolt "go.etcd.io/bbolt"
)

var bucketElevators = []byte("elevators")

// BoltStore is a local-dev Store backend requiring no Redis instance,
// used for single-process smoke runs and tests. It keeps the same
// key namespace ("elevator:status:{id}") as RedisStore so swapping
// backends doesn't change call sites.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a bbolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errs.Store("failed to open bolt db", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketElevators)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errs.Store("failed to create bucket", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketElevators)
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		val = append([]byte(nil), v...)
		return nil
	})
	if err == ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Store("bolt get failed", err)
	}
	return val, nil
}

func (s *BoltStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketElevators)
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return errs.Store("bolt set failed", err)
	}
	return nil
}

func (s *BoltStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketElevators)
		return b.Delete([]byte(key))
	})
	if err != nil {
		return errs.Store("bolt delete failed", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
