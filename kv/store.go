package kv

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned when the requested key is not found.
	ErrKeyNotFound = errors.New("key not found")
	// ErrTxNotWritable is returned when a mutating operation is called
	// during a read-only transaction.
	ErrTxNotWritable = errors.New("transaction is not writable")
)

// IsNotFound reports whether err means a key was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// Store is a generic transactional key value store, modeled after the
// boltdb database struct.
type Store interface {
	// View opens a transaction that must not mutate data.
	View(ctx context.Context, fn func(Tx) error) error
	// Update opens a transaction that may mutate data.
	Update(ctx context.Context, fn func(Tx) error) error
}

// Tx is a transaction in the store. Buckets are created on first use.
type Tx interface {
	Bucket(b []byte) (Bucket, error)
	Context() context.Context
	WithContext(ctx context.Context)
}

// Bucket is the get/put/delete/iterate surface of a key value namespace.
type Bucket interface {
	Get(key []byte) ([]byte, error)
	Cursor() (Cursor, error)
	// Put errors with ErrTxNotWritable inside a view transaction.
	Put(key, value []byte) error
	// Delete errors with ErrTxNotWritable inside a view transaction.
	Delete(key []byte) error
}

// Cursor iterates key-ordered entries of a bucket.
type Cursor interface {
	Seek(prefix []byte) (k, v []byte)
	First() (k, v []byte)
	Next() (k, v []byte)
}
