package tidemark

import "context"

// WipeRequest asks for every trace of a workspace to be erased. Scope
// narrows the sweep; empty means everything.
type WipeRequest struct {
	Workspace string `json:"workspace"`
	Scope     string `json:"scope,omitempty"`
}

// WipeService drives tenant-data erasure. The call is one-way: callers get
// an error only for rejected requests, the outcome of the deletion stages is
// observable through logs and metrics.
type WipeService interface {
	Wipe(ctx context.Context, req WipeRequest) error
}
