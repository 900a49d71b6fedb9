package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/influxdata/userd/kv"
	"github.com/influxdata/userd/sqlite/migrations"
	"github.com/jmoiron/sqlx"
)

const (
	bucketsTableName = "kv_buckets"
	entriesTableName = "kv_entries"
)

var _ kv.SchemaStore = (*KVStore)(nil)

// KVStore is a kv.Store whose buckets are rows of a sqlite table.
// Every View and Update runs inside one sql transaction.
type KVStore struct {
	store *SqlStore
}

// NewKVStore brings the schema of s up to date and returns a store over it.
func NewKVStore(ctx context.Context, s *SqlStore) (*KVStore, error) {
	if err := NewMigrator(s, s.log).Up(ctx, migrations.AllUp); err != nil {
		return nil, fmt.Errorf("unable to create key value tables: %w", err)
	}

	return &KVStore{store: s}, nil
}

// CreateBucket registers a bucket if it does not exist.
func (s *KVStore) CreateBucket(ctx context.Context, name []byte) error {
	return s.Update(ctx, func(tx kv.Tx) error {
		q := sq.Insert(bucketsTableName).
			Columns("name").
			Values(string(name)).
			Suffix("ON CONFLICT(name) DO NOTHING")

		query, args, err := q.ToSql()
		if err != nil {
			return err
		}

		_, err = tx.(*Tx).tx.ExecContext(ctx, query, args...)
		return err
	})
}

// View runs fn in a transaction that rejects writes.
func (s *KVStore) View(ctx context.Context, fn func(kv.Tx) error) error {
	s.store.Mu.RLock()
	defer s.store.Mu.RUnlock()

	return s.run(ctx, false, fn)
}

// Update runs fn in a write transaction, committing when fn returns nil.
func (s *KVStore) Update(ctx context.Context, fn func(kv.Tx) error) error {
	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	return s.run(ctx, true, fn)
}

func (s *KVStore) run(ctx context.Context, writable bool, fn func(kv.Tx) error) error {
	if s.store.DB == nil {
		return errors.New("sqlite database is closed")
	}

	sqlTx, err := s.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	tx := &Tx{
		tx:       sqlTx,
		ctx:      ctx,
		writable: writable,
	}

	if err := fn(tx); err != nil {
		sqlTx.Rollback()
		return err
	}

	if !writable {
		return sqlTx.Rollback()
	}
	return sqlTx.Commit()
}

// Tx wraps a sql transaction. It implements kv.Tx.
type Tx struct {
	tx       *sqlx.Tx
	ctx      context.Context
	writable bool
}

// Context returns the context for the transaction.
func (t *Tx) Context() context.Context {
	return t.ctx
}

// WithContext sets the context for the transaction.
func (t *Tx) WithContext(ctx context.Context) {
	t.ctx = ctx
}

// Bucket retrieves the bucket named b.
func (t *Tx) Bucket(b []byte) (kv.Bucket, error) {
	query, args, err := sq.Select("name").
		From(bucketsTableName).
		Where(sq.Eq{"name": string(b)}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var name string
	if err := t.tx.GetContext(t.ctx, &name, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bucket %q: %w", string(b), kv.ErrBucketNotFound)
		}
		return nil, err
	}

	return &Bucket{tx: t, name: name}, nil
}

// Bucket is a named range of rows in the entries table.
type Bucket struct {
	tx   *Tx
	name string
}

// Get retrieves the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	query, args, err := sq.Select("value").
		From(entriesTableName).
		Where(sq.Eq{"bucket": b.name, "key": key}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var value []byte
	if err := b.tx.tx.GetContext(b.tx.ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kv.ErrKeyNotFound
		}
		return nil, err
	}

	return value, nil
}

// Put sets the value at the provided key.
func (b *Bucket) Put(key []byte, value []byte) error {
	if !b.tx.writable {
		return kv.ErrTxNotWritable
	}

	query, args, err := sq.Insert(entriesTableName).
		Columns("bucket", "key", "value").
		Values(b.name, key, value).
		Suffix("ON CONFLICT(bucket, key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return err
	}

	_, err = b.tx.tx.ExecContext(b.tx.ctx, query, args...)
	return err
}

// Delete removes the provided key.
func (b *Bucket) Delete(key []byte) error {
	if !b.tx.writable {
		return kv.ErrTxNotWritable
	}

	query, args, err := sq.Delete(entriesTableName).
		Where(sq.Eq{"bucket": b.name, "key": key}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = b.tx.tx.ExecContext(b.tx.ctx, query, args...)
	return err
}

type entry struct {
	Key   []byte `db:"key"`
	Value []byte `db:"value"`
}

// ForwardCursor returns a cursor over the entries at or after seek in
// ascending key order.
func (b *Bucket) ForwardCursor(seek []byte) (kv.ForwardCursor, error) {
	q := sq.Select("key", "value").
		From(entriesTableName).
		Where(sq.Eq{"bucket": b.name}).
		OrderBy("key ASC")
	if len(seek) > 0 {
		q = q.Where(sq.GtOrEq{"key": seek})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var entries []entry
	if err := b.tx.tx.SelectContext(b.tx.ctx, &entries, query, args...); err != nil {
		return nil, err
	}

	pairs := make([]kv.Pair, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, kv.Pair{Key: e.Key, Value: e.Value})
	}

	return kv.NewStaticCursor(pairs), nil
}
