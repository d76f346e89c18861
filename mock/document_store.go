package mock

import (
	"context"

	"github.com/tidemark-io/tidemark"
)

var _ tidemark.DocumentStore = &DocumentStore{}

// DocumentStore is a mock document store.
type DocumentStore struct {
	FindWorkspaceIDsF  func(ctx context.Context, ids []string) (map[string]string, error)
	DeleteByWorkspaceF func(ctx context.Context, workspaceID string) (int, error)
}

// NewDocumentStore returns a mock DocumentStore whose methods return zero
// values.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		FindWorkspaceIDsF: func(ctx context.Context, ids []string) (map[string]string, error) {
			return map[string]string{}, nil
		},
		DeleteByWorkspaceF: func(ctx context.Context, workspaceID string) (int, error) {
			return 0, nil
		},
	}
}

// FindWorkspaceIDs calls FindWorkspaceIDsF.
func (s *DocumentStore) FindWorkspaceIDs(ctx context.Context, ids []string) (map[string]string, error) {
	return s.FindWorkspaceIDsF(ctx, ids)
}

// DeleteByWorkspace calls DeleteByWorkspaceF.
func (s *DocumentStore) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	return s.DeleteByWorkspaceF(ctx, workspaceID)
}
