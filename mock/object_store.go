package mock

import (
	"context"
	"io"

	"github.com/tidemark-io/tidemark"
)

var _ tidemark.ObjectStore = &ObjectStore{}

// ObjectStore is a mock object store gateway.
type ObjectStore struct {
	UploadF         func(ctx context.Context, body io.Reader, key, contentType string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error)
	ExistsF         func(ctx context.Context, key string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error)
	ApplyLifecycleF func(ctx context.Context, prefix any, expirationDays int, opts ...tidemark.ObjectOption) (bool, error)
}

// NewObjectStore returns a mock ObjectStore whose methods succeed with
// zero values.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		UploadF: func(ctx context.Context, body io.Reader, key, contentType string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error) {
			return &tidemark.StorageEvent{Key: key}, nil
		},
		ExistsF: func(ctx context.Context, key string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error) {
			return nil, nil
		},
		ApplyLifecycleF: func(ctx context.Context, prefix any, expirationDays int, opts ...tidemark.ObjectOption) (bool, error) {
			return true, nil
		},
	}
}

// Upload calls UploadF.
func (s *ObjectStore) Upload(ctx context.Context, body io.Reader, key, contentType string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error) {
	return s.UploadF(ctx, body, key, contentType, opts...)
}

// Exists calls ExistsF.
func (s *ObjectStore) Exists(ctx context.Context, key string, opts ...tidemark.ObjectOption) (*tidemark.StorageEvent, error) {
	return s.ExistsF(ctx, key, opts...)
}

// ApplyLifecycle calls ApplyLifecycleF.
func (s *ObjectStore) ApplyLifecycle(ctx context.Context, prefix any, expirationDays int, opts ...tidemark.ObjectOption) (bool, error) {
	return s.ApplyLifecycleF(ctx, prefix, expirationDays, opts...)
}
