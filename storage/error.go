package storage

import (
	"fmt"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

// UploadError wraps a hard backend failure from an upload or existence
// probe. The caller decides whether to retry; this layer never does.
func UploadError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "object store operation failed",
		Op:   "storage.S3Store",
		Err:  err,
	}
}

// ErrEmptyPrefix rejects an empty key prefix. An empty prefix matches every
// key, so the resulting rule would expire the entire bucket.
var ErrEmptyPrefix = &errors.Error{
	Code: errors.EInvalid,
	Msg:  "lifecycle prefix must not be empty",
}

// ConfigurationError reports a lifecycle prefix argument of the wrong
// shape. Raised before any network call is made.
func ConfigurationError(v any) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  fmt.Sprintf("lifecycle prefix must be a string or a list of strings, got %T", v),
	}
}
