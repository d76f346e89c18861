package document

import (
	"context"
	"time"

	"github.com/tidemark-io/tidemark"
	"github.com/tidemark-io/tidemark/kv"
)

// Service is the document write/read surface. Every create and update runs
// the reference integrity check before anything is persisted; a failed
// check leaves the store untouched.
type Service struct {
	store   *Store
	checker *IntegrityChecker
}

// NewService returns a document service over store.
func NewService(store *Store, opts ...IntegrityOption) *Service {
	return &Service{
		store:   store,
		checker: NewIntegrityChecker(store, opts...),
	}
}

// CreateDocument validates d, checks its references against its workspace
// and persists it.
func (s *Service) CreateDocument(ctx context.Context, d *tidemark.Document) error {
	if d.ID == "" {
		return ErrDocumentIDRequired
	}
	if !tidemark.ValidWorkspaceID(d.WorkspaceID) {
		return tidemark.ErrWorkspaceIDRequired
	}

	if err := s.checker.CheckReferences(ctx, d.WorkspaceID, d.References); err != nil {
		return err
	}

	now := time.Now().UTC()
	d.Meta.CreatedAt = now
	d.Meta.UpdatedAt = now

	return s.store.kv.Update(ctx, func(tx kv.Tx) error {
		return s.store.createDocument(tx, d)
	})
}

// FindDocumentByID returns the document with the given ID.
func (s *Service) FindDocumentByID(ctx context.Context, id string) (*tidemark.Document, error) {
	var d *tidemark.Document
	err := s.store.kv.View(ctx, func(tx kv.Tx) error {
		doc, err := s.store.getDocument(tx, id)
		if err != nil {
			return err
		}
		d = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDocument re-checks the updated reference set and replaces the
// stored document. The workspace assigned at creation wins; updates cannot
// move a document between workspaces.
func (s *Service) UpdateDocument(ctx context.Context, d *tidemark.Document) error {
	if d.ID == "" {
		return ErrDocumentIDRequired
	}

	current, err := s.FindDocumentByID(ctx, d.ID)
	if err != nil {
		return err
	}
	d.WorkspaceID = current.WorkspaceID

	if err := s.checker.CheckReferences(ctx, d.WorkspaceID, d.References); err != nil {
		return err
	}

	d.Meta.CreatedAt = current.Meta.CreatedAt
	d.Meta.UpdatedAt = time.Now().UTC()

	return s.store.kv.Update(ctx, func(tx kv.Tx) error {
		return s.store.putDocument(tx, d)
	})
}

// DeleteDocument removes the document with the given ID. Deletion does not
// re-validate references; it never creates new cross-workspace state.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return ErrDocumentIDRequired
	}
	return s.store.kv.Update(ctx, func(tx kv.Tx) error {
		return s.store.deleteDocument(tx, id)
	})
}

var _ tidemark.DocumentService = (*Service)(nil)
