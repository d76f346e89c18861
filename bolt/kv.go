package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/tidemark-io/tidemark/kv"
)

// KVStore is a kv.Store backed by boltdb.
type KVStore struct {
	path string
	db   *bolt.DB
	log  *zap.Logger
}

// NewKVStore returns a KVStore for the file at path. Open must be called
// before use.
func NewKVStore(path string) *KVStore {
	return &KVStore{
		path: path,
		log:  zap.NewNop(),
	}
}

// WithLogger sets the logger on the store.
func (s *KVStore) WithLogger(log *zap.Logger) {
	s.log = log
}

// Open creates the boltdb file if it doesn't exist and opens it.
func (s *KVStore) Open(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("unable to create directory %s: %v", filepath.Dir(s.path), err)
	}

	if _, err := os.Stat(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("unable to open boltdb file %v", err)
	}
	s.db = db

	s.log.Info("Resources opened", zap.String("path", s.path))
	return nil
}

// Close closes the connection to the bolt database.
func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// View opens a read-only transaction against the store.
func (s *KVStore) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Tx{
			tx:  tx,
			ctx: ctx,
		})
	})
}

// Update opens a writable transaction against the store.
func (s *KVStore) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{
			tx:  tx,
			ctx: ctx,
		})
	})
}

// Tx is a light wrapper around a boltdb transaction. It implements kv.Tx.
type Tx struct {
	tx  *bolt.Tx
	ctx context.Context
}

// Context returns the context for the transaction.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// WithContext sets the context for the transaction.
func (tx *Tx) WithContext(ctx context.Context) {
	tx.ctx = ctx
}

// Bucket retrieves the bucket named b, creating it in a writable
// transaction if it does not exist yet.
func (tx *Tx) Bucket(b []byte) (kv.Bucket, error) {
	bkt := tx.tx.Bucket(b)
	if bkt == nil {
		if !tx.tx.Writable() {
			// a view transaction against a bucket nothing has written to yet
			return &Bucket{}, nil
		}
		created, err := tx.tx.CreateBucketIfNotExists(b)
		if err != nil {
			return nil, err
		}
		bkt = created
	}
	return &Bucket{bucket: bkt}, nil
}

// Bucket implements kv.Bucket. The zero value reads as an empty bucket.
type Bucket struct {
	bucket *bolt.Bucket
}

// Get retrieves the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	if b.bucket == nil {
		return nil, kv.ErrKeyNotFound
	}
	val := b.bucket.Get(key)
	if len(val) == 0 {
		return nil, kv.ErrKeyNotFound
	}
	return val, nil
}

// Put sets the value at the provided key.
func (b *Bucket) Put(key, value []byte) error {
	if b.bucket == nil {
		return kv.ErrTxNotWritable
	}
	err := b.bucket.Put(key, value)
	if errors.Is(err, bolt.ErrTxNotWritable) {
		return kv.ErrTxNotWritable
	}
	return err
}

// Delete removes the provided key.
func (b *Bucket) Delete(key []byte) error {
	if b.bucket == nil {
		return kv.ErrTxNotWritable
	}
	err := b.bucket.Delete(key)
	if errors.Is(err, bolt.ErrTxNotWritable) {
		return kv.ErrTxNotWritable
	}
	return err
}

// Cursor retrieves a cursor for iterating through the entries of the
// bucket.
func (b *Bucket) Cursor() (kv.Cursor, error) {
	if b.bucket == nil {
		return &Cursor{}, nil
	}
	return &Cursor{cursor: b.bucket.Cursor()}, nil
}

// Cursor iterates entries in key order. The zero value yields nothing.
type Cursor struct {
	cursor *bolt.Cursor
}

// Seek moves the cursor to the first key matching prefix.
func (c *Cursor) Seek(prefix []byte) ([]byte, []byte) {
	if c.cursor == nil {
		return nil, nil
	}
	k, v := c.cursor.Seek(prefix)
	if len(k) == 0 && len(v) == 0 {
		return nil, nil
	}
	return k, v
}

// First moves the cursor to the first entry of the bucket.
func (c *Cursor) First() ([]byte, []byte) {
	if c.cursor == nil {
		return nil, nil
	}
	k, v := c.cursor.First()
	if len(k) == 0 && len(v) == 0 {
		return nil, nil
	}
	return k, v
}

// Next advances the cursor.
func (c *Cursor) Next() ([]byte, []byte) {
	if c.cursor == nil {
		return nil, nil
	}
	k, v := c.cursor.Next()
	if len(k) == 0 && len(v) == 0 {
		return nil, nil
	}
	return k, v
}
