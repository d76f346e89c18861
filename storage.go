package tidemark

import (
	"context"
	"io"
)

// StorageEvent is the immutable result of a completed upload or existence
// probe against the object store.
type StorageEvent struct {
	Bucket   string            `json:"bucket"`
	Key      string            `json:"key"`
	ETag     string            `json:"etag"`
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// LifecyclePolicy is a declarative retention rule applied at the bucket
// level. Applying a policy replaces the bucket's entire lifecycle
// configuration; rules for prefixes not listed here are lost.
type LifecyclePolicy struct {
	Prefixes       []string `json:"prefixes"`
	ExpirationDays int      `json:"expirationDays"`
	Enabled        bool     `json:"enabled"`
}

// ObjectOptions carries the per-call overrides for object store operations.
type ObjectOptions struct {
	Bucket   string
	Metadata map[string]string
}

// ObjectOption configures a single object store call.
type ObjectOption func(*ObjectOptions)

// WithBucket overrides the configured default bucket for one call.
func WithBucket(bucket string) ObjectOption {
	return func(o *ObjectOptions) { o.Bucket = bucket }
}

// WithMetadata attaches user metadata to an upload.
func WithMetadata(md map[string]string) ObjectOption {
	return func(o *ObjectOptions) { o.Metadata = md }
}

// ObjectStore moves byte streams into durable object storage and manages
// their retention.
//
// Upload streams body to key without buffering the whole payload, returning
// the backend's entity tag and a canonical public URL. Backend failures are
// returned to the caller unretried.
//
// Exists performs a metadata-only probe. A missing key yields (nil, nil);
// only true backend failures produce an error.
//
// ApplyLifecycle replaces the bucket's lifecycle configuration with one
// expiration rule per prefix. The prefix argument must be a string or a list
// of strings; any other shape is a configuration error raised before any
// network call. Backend failures are logged and reported as false so bulk
// cleanup callers can keep going.
type ObjectStore interface {
	Upload(ctx context.Context, body io.Reader, key, contentType string, opts ...ObjectOption) (*StorageEvent, error)
	Exists(ctx context.Context, key string, opts ...ObjectOption) (*StorageEvent, error)
	ApplyLifecycle(ctx context.Context, prefix any, expirationDays int, opts ...ObjectOption) (bool, error)
}
