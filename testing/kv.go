package testing

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/influxdata/userd/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// KVStoreFields are the key value pairs a store is seeded with, per bucket.
type KVStoreFields struct {
	Bucket []byte
	Pairs  []kv.Pair
}

// KVStore runs the conformance tests every kv.SchemaStore engine must pass.
func KVStore(
	init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()),
	t *testing.T,
) {
	tests := []struct {
		name string
		fn   func(init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()), t *testing.T)
	}{
		{name: "Get", fn: KVGet},
		{name: "Put", fn: KVPut},
		{name: "Delete", fn: KVDelete},
		{name: "ForwardCursor", fn: KVForwardCursor},
		{name: "ViewIsReadOnly", fn: KVViewIsReadOnly},
		{name: "MissingBucket", fn: KVMissingBucket},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(init, t)
		})
	}
}

// KVGet testing
func KVGet(
	init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()),
	t *testing.T,
) {
	type wants struct {
		val []byte
		err error
	}

	tests := []struct {
		name   string
		fields KVStoreFields
		key    []byte
		wants  wants
	}{
		{
			name: "get existing key",
			fields: KVStoreFields{
				Bucket: []byte("bucket"),
				Pairs: []kv.Pair{
					{Key: []byte("hello"), Value: []byte("world")},
				},
			},
			key:   []byte("hello"),
			wants: wants{val: []byte("world")},
		},
		{
			name: "get missing key",
			fields: KVStoreFields{
				Bucket: []byte("bucket"),
			},
			key:   []byte("hello"),
			wants: wants{err: kv.ErrKeyNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(tt.fields, t)
			defer done()

			err := s.View(context.Background(), func(tx kv.Tx) error {
				b, err := tx.Bucket(tt.fields.Bucket)
				require.NoError(t, err)

				val, err := b.Get(tt.key)
				if tt.wants.err != nil {
					assert.ErrorIs(t, err, tt.wants.err)
					return nil
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wants.val, val)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

// KVPut testing
func KVPut(
	init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("hello"), Value: []byte("world")},
		},
	}
	s, done := init(fields, t)
	defer done()
	ctx := context.Background()

	err := s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}
		if err := b.Put([]byte("hello"), []byte("there")); err != nil {
			return err
		}
		return b.Put([]byte("new"), []byte("value"))
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		require.NoError(t, err)

		val, err := b.Get([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "there", string(val))

		val, err = b.Get([]byte("new"))
		require.NoError(t, err)
		assert.Equal(t, "value", string(val))
		return nil
	})
	require.NoError(t, err)
}

// KVDelete testing
func KVDelete(
	init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
		},
	}
	s, done := init(fields, t)
	defer done()
	ctx := context.Background()

	err := s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}
		if err := b.Delete([]byte("a")); err != nil {
			return err
		}
		// deleting a missing key is not an error
		return b.Delete([]byte("missing"))
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		require.NoError(t, err)

		_, err = b.Get([]byte("a"))
		assert.True(t, kv.IsNotFound(err))

		val, err := b.Get([]byte("b"))
		require.NoError(t, err)
		assert.Equal(t, "2", string(val))
		return nil
	})
	require.NoError(t, err)
}

// KVForwardCursor testing
func KVForwardCursor(
	init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("c"), Value: []byte("3")},
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("d"), Value: []byte("4")},
			{Key: []byte("b"), Value: []byte("2")},
		},
	}

	tests := []struct {
		name string
		seek []byte
		want []string
	}{
		{
			name: "from the start",
			want: []string{"a=1", "b=2", "c=3", "d=4"},
		},
		{
			name: "from an existing key",
			seek: []byte("b"),
			want: []string{"b=2", "c=3", "d=4"},
		},
		{
			name: "from between keys",
			seek: []byte("bb"),
			want: []string{"c=3", "d=4"},
		},
		{
			name: "past the end",
			seek: []byte("z"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, done := init(fields, t)
			defer done()

			var got []string
			err := s.View(context.Background(), func(tx kv.Tx) error {
				b, err := tx.Bucket(fields.Bucket)
				if err != nil {
					return err
				}

				cur, err := b.ForwardCursor(tt.seek)
				if err != nil {
					return err
				}
				defer cur.Close()

				for k, v := cur.Next(); k != nil; k, v = cur.Next() {
					got = append(got, string(k)+"="+string(v))
				}
				return cur.Err()
			})
			require.NoError(t, err)

			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("cursor pairs are different -got/+want\ndiff %s", diff)
			}
		})
	}
}

// KVViewIsReadOnly testing
func KVViewIsReadOnly(
	init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()),
	t *testing.T,
) {
	fields := KVStoreFields{
		Bucket: []byte("bucket"),
		Pairs: []kv.Pair{
			{Key: []byte("a"), Value: []byte("1")},
		},
	}
	s, done := init(fields, t)
	defer done()

	err := s.View(context.Background(), func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		require.NoError(t, err)

		assert.ErrorIs(t, b.Put([]byte("b"), []byte("2")), kv.ErrTxNotWritable)
		assert.ErrorIs(t, b.Delete([]byte("a")), kv.ErrTxNotWritable)
		return nil
	})
	require.NoError(t, err)
}

// KVMissingBucket testing
func KVMissingBucket(
	init func(KVStoreFields, *testing.T) (kv.SchemaStore, func()),
	t *testing.T,
) {
	s, done := init(KVStoreFields{Bucket: []byte("bucket")}, t)
	defer done()

	err := s.View(context.Background(), func(tx kv.Tx) error {
		_, err := tx.Bucket([]byte("nope"))
		return err
	})
	assert.ErrorIs(t, err, kv.ErrBucketNotFound)
}

// SeedKVStore creates the bucket in fields and writes its pairs.
func SeedKVStore(ctx context.Context, s kv.SchemaStore, fields KVStoreFields) error {
	if err := s.CreateBucket(ctx, fields.Bucket); err != nil {
		return err
	}

	return s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(fields.Bucket)
		if err != nil {
			return err
		}

		for _, p := range fields.Pairs {
			if err := b.Put(p.Key, p.Value); err != nil {
				return err
			}
		}
		return nil
	})
}
