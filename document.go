package tidemark

import (
	"context"
	"encoding/json"
	"time"
)

// Document is a workspace-scoped record. References declare links to other
// documents; every target must live in the same workspace as the source, a
// rule enforced on the write path before the document is persisted.
type Document struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspaceID"`
	Meta        DocumentMeta    `json:"meta"`
	Content     json.RawMessage `json:"content,omitempty"`
	References  []string        `json:"references,omitempty"`
}

// DocumentMeta holds descriptive attributes that can be fetched without the
// content body.
type DocumentMeta struct {
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DocumentService is the write/read surface guarded by the reference
// integrity check.
type DocumentService interface {
	CreateDocument(ctx context.Context, d *Document) error
	FindDocumentByID(ctx context.Context, id string) (*Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, id string) error
}

// ReferenceResolver fetches the workspace attribute for a set of document
// IDs in one batched read. IDs with no stored document are omitted from the
// result rather than reported as errors.
type ReferenceResolver interface {
	FindWorkspaceIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// DocumentStore is the storage surface the lifecycle orchestrator drives.
// DeleteByWorkspace removes every document scoped to the workspace and
// returns how many were removed; removing zero is success, which makes
// re-running a wipe idempotent.
type DocumentStore interface {
	ReferenceResolver

	DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error)
}
