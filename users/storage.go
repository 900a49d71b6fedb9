package users

import (
	"context"

	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/platform/errors"
	"github.com/influxdata/userd/kv"
	"github.com/influxdata/userd/snowflake"
)

var (
	userBucket = []byte("usersv1")
	userIndex  = []byte("useremailindexv1")
)

// Store persists users as JSON documents in a kv store, with an email
// index kept in the same transaction.
type Store struct {
	kvStore kv.Store
	IDGen   platform.IDGenerator
}

// NewStore creates the user buckets on kvStore if they are missing.
func NewStore(ctx context.Context, kvStore kv.SchemaStore) (*Store, error) {
	for _, b := range [][]byte{userBucket, userIndex} {
		if err := kvStore.CreateBucket(ctx, b); err != nil {
			return nil, ErrStoreUnavailable(err)
		}
	}

	return &Store{
		kvStore: kvStore,
		IDGen:   snowflake.NewIDGenerator(),
	}, nil
}

// View opens up a transaction that will not write to any data. Implementing interfaces
// should take care to ensure that all view transactions do not mutate any data.
func (s *Store) View(ctx context.Context, fn func(kv.Tx) error) error {
	return storeErr(s.kvStore.View(ctx, fn))
}

// Update opens up a transaction that will mutate data.
func (s *Store) Update(ctx context.Context, fn func(kv.Tx) error) error {
	return storeErr(s.kvStore.Update(ctx, fn))
}

// storeErr keeps coded errors returned by the transaction body and reports
// everything else as the store being unavailable.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	return ErrStoreUnavailable(err)
}
