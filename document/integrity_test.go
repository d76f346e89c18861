package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark-io/tidemark"
	"github.com/tidemark-io/tidemark/document"
	"github.com/tidemark-io/tidemark/kit/platform/errors"
	"github.com/tidemark-io/tidemark/mock"
)

func TestIntegrityChecker_EmptyReferenceSetSkipsLookup(t *testing.T) {
	store := mock.NewDocumentStore()
	var lookups int
	store.FindWorkspaceIDsF = func(ctx context.Context, ids []string) (map[string]string, error) {
		lookups++
		return nil, nil
	}

	checker := document.NewIntegrityChecker(store)
	require.NoError(t, checker.CheckReferences(context.Background(), "ws1", nil))
	require.NoError(t, checker.CheckReferences(context.Background(), "ws1", []string{}))
	assert.Zero(t, lookups, "the empty set must succeed without a store read")
}

func TestIntegrityChecker_MissingWorkspaceIsCallerBug(t *testing.T) {
	checker := document.NewIntegrityChecker(mock.NewDocumentStore())

	err := checker.CheckReferences(context.Background(), "", []string{"d1"})
	require.Error(t, err)
	assert.Equal(t, errors.EInternal, errors.ErrorCode(err))
}

func TestIntegrityChecker_CheckReferences(t *testing.T) {
	stored := map[string]string{
		"d1": "ws1",
		"d2": "ws1",
		"d3": "ws2",
	}
	store := mock.NewDocumentStore()
	store.FindWorkspaceIDsF = func(ctx context.Context, ids []string) (map[string]string, error) {
		found := map[string]string{}
		for _, id := range ids {
			if ws, ok := stored[id]; ok {
				found[id] = ws
			}
		}
		return found, nil
	}

	tests := []struct {
		name      string
		workspace string
		refs      []string
		wantErr   string
	}{
		{
			name:      "all references in workspace",
			workspace: "ws1",
			refs:      []string{"d1", "d2"},
		},
		{
			name:      "missing references are tolerated",
			workspace: "ws1",
			refs:      []string{"d1", "ghost"},
		},
		{
			name:      "single cross-workspace reference fails",
			workspace: "ws1",
			refs:      []string{"d1", "d3"},
			wantErr:   "references must belong to the same workspace: d3",
		},
		{
			name:      "all references foreign fails",
			workspace: "ws3",
			refs:      []string{"d1", "d2"},
			wantErr:   "references must belong to the same workspace: d1, d2",
		},
	}

	checker := document.NewIntegrityChecker(store)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.CheckReferences(context.Background(), tt.workspace, tt.refs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestIntegrityChecker_StrictMode(t *testing.T) {
	store := mock.NewDocumentStore()
	store.FindWorkspaceIDsF = func(ctx context.Context, ids []string) (map[string]string, error) {
		return map[string]string{"d1": "ws1"}, nil
	}

	checker := document.NewIntegrityChecker(store, document.WithStrictReferences())

	require.NoError(t, checker.CheckReferences(context.Background(), "ws1", []string{"d1"}))

	err := checker.CheckReferences(context.Background(), "ws1", []string{"d1", "ghost"})
	require.Error(t, err)
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestIntegrityChecker_ResolverFailurePropagates(t *testing.T) {
	store := mock.NewDocumentStore()
	store.FindWorkspaceIDsF = func(ctx context.Context, ids []string) (map[string]string, error) {
		return nil, &errors.Error{Code: errors.EInternal, Msg: "store offline"}
	}

	checker := document.NewIntegrityChecker(store)
	err := checker.CheckReferences(context.Background(), "ws1", []string{"d1"})
	require.Error(t, err)
	assert.Equal(t, errors.EInternal, errors.ErrorCode(err))
}

var _ tidemark.ReferenceResolver = mock.NewDocumentStore()
