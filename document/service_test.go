package document_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark-io/tidemark"
	"github.com/tidemark-io/tidemark/bolt"
	"github.com/tidemark-io/tidemark/document"
	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

func newTestStore(t *testing.T) *bolt.KVStore {
	t.Helper()
	s := bolt.NewKVStore(filepath.Join(t.TempDir(), "tidemark.bolt"))
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestService_CreateAndFindDocument(t *testing.T) {
	svc := document.NewService(document.NewStore(newTestStore(t)))
	ctx := context.Background()

	d := &tidemark.Document{
		ID:          "d1",
		WorkspaceID: "ws1",
		Meta:        tidemark.DocumentMeta{Name: "first"},
	}
	require.NoError(t, svc.CreateDocument(ctx, d))
	assert.False(t, d.Meta.CreatedAt.IsZero())

	got, err := svc.FindDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "ws1", got.WorkspaceID)
	assert.Equal(t, "first", got.Meta.Name)
}

func TestService_CreateDocumentValidation(t *testing.T) {
	svc := document.NewService(document.NewStore(newTestStore(t)))
	ctx := context.Background()

	err := svc.CreateDocument(ctx, &tidemark.Document{WorkspaceID: "ws1"})
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	err = svc.CreateDocument(ctx, &tidemark.Document{ID: "d1"})
	assert.Equal(t, errors.EInternal, errors.ErrorCode(err))
}

func TestService_CreateDocumentRejectsDuplicateID(t *testing.T) {
	store := document.NewStore(newTestStore(t))
	svc := document.NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "d1", WorkspaceID: "ws1"}))

	err := svc.CreateDocument(ctx, &tidemark.Document{ID: "d1", WorkspaceID: "ws2"})
	require.Error(t, err)
	assert.Equal(t, errors.EConflict, errors.ErrorCode(err))

	// the stored document keeps its original workspace
	got, err := svc.FindDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "ws1", got.WorkspaceID)

	// and a wipe of the rejected workspace cannot reach it
	n, err := store.DeleteByWorkspace(ctx, "ws2")
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err = svc.FindDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "ws1", got.WorkspaceID)
}

func TestService_CrossWorkspaceReferenceBlocksWrite(t *testing.T) {
	store := document.NewStore(newTestStore(t))
	svc := document.NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "other", WorkspaceID: "ws2"}))

	err := svc.CreateDocument(ctx, &tidemark.Document{
		ID:          "d1",
		WorkspaceID: "ws1",
		References:  []string{"other"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	// the failed check must leave no partial write behind
	_, err = svc.FindDocumentByID(ctx, "d1")
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

func TestService_SameWorkspaceReferencesAllowed(t *testing.T) {
	svc := document.NewService(document.NewStore(newTestStore(t)))
	ctx := context.Background()

	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "a", WorkspaceID: "ws1"}))
	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "b", WorkspaceID: "ws1"}))
	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{
		ID:          "c",
		WorkspaceID: "ws1",
		References:  []string{"a", "b", "dangling"},
	}))
}

func TestService_UpdateDocumentKeepsWorkspace(t *testing.T) {
	svc := document.NewService(document.NewStore(newTestStore(t)))
	ctx := context.Background()

	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "d1", WorkspaceID: "ws1"}))

	// an update cannot move the document into another workspace
	require.NoError(t, svc.UpdateDocument(ctx, &tidemark.Document{ID: "d1", WorkspaceID: "ws2"}))

	got, err := svc.FindDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "ws1", got.WorkspaceID)
}

func TestService_UpdateRechecksReferences(t *testing.T) {
	svc := document.NewService(document.NewStore(newTestStore(t)))
	ctx := context.Background()

	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "foreign", WorkspaceID: "ws2"}))
	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "d1", WorkspaceID: "ws1"}))

	err := svc.UpdateDocument(ctx, &tidemark.Document{ID: "d1", References: []string{"foreign"}})
	require.Error(t, err)
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}

func TestStore_FindWorkspaceIDs(t *testing.T) {
	store := document.NewStore(newTestStore(t))
	svc := document.NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "a", WorkspaceID: "ws1"}))
	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "b", WorkspaceID: "ws2"}))

	found, err := store.FindWorkspaceIDs(ctx, []string{"a", "b", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "ws1", "b": "ws2"}, found)
}

func TestStore_DeleteByWorkspace(t *testing.T) {
	store := document.NewStore(newTestStore(t))
	svc := document.NewService(store)
	ctx := context.Background()

	for _, d := range []*tidemark.Document{
		{ID: "a", WorkspaceID: "ws1"},
		{ID: "b", WorkspaceID: "ws1"},
		{ID: "keep", WorkspaceID: "ws2"},
	} {
		require.NoError(t, svc.CreateDocument(ctx, d))
	}

	n, err := store.DeleteByWorkspace(ctx, "ws1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// documents in other workspaces are untouched
	_, err = svc.FindDocumentByID(ctx, "keep")
	assert.NoError(t, err)

	_, err = svc.FindDocumentByID(ctx, "a")
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	// re-running against an already empty workspace is success
	n, err = store.DeleteByWorkspace(ctx, "ws1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_DeleteByWorkspaceRequiresWorkspace(t *testing.T) {
	store := document.NewStore(newTestStore(t))

	_, err := store.DeleteByWorkspace(context.Background(), " ")
	assert.Equal(t, errors.EInternal, errors.ErrorCode(err))
}

func TestService_DeleteDocument(t *testing.T) {
	svc := document.NewService(document.NewStore(newTestStore(t)))
	ctx := context.Background()

	require.NoError(t, svc.CreateDocument(ctx, &tidemark.Document{ID: "d1", WorkspaceID: "ws1"}))
	require.NoError(t, svc.DeleteDocument(ctx, "d1"))

	_, err := svc.FindDocumentByID(ctx, "d1")
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	err = svc.DeleteDocument(ctx, "d1")
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}
