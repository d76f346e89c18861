package document

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/tidemark-io/tidemark"
	"github.com/tidemark-io/tidemark/kv"
)

var (
	documentBucket       = []byte("documentsv1")
	workspaceIndexBucket = []byte("documentworkspaceindexv1")
)

// Store persists documents in a kv store. The workspace index bucket maps
// "<workspaceID>/<docID>" to the document ID so that workspace-scoped
// sweeps are a prefix scan rather than a full-bucket walk.
type Store struct {
	kv kv.Store
}

// NewStore returns a document store on top of store.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

func workspaceIndexKey(workspaceID, docID string) []byte {
	k := make([]byte, 0, len(workspaceID)+len(docID)+1)
	k = append(k, workspaceID...)
	k = append(k, '/')
	k = append(k, docID...)
	return k
}

func unmarshalDocument(v []byte) (*tidemark.Document, error) {
	d := &tidemark.Document{}
	if err := json.Unmarshal(v, d); err != nil {
		return nil, ErrCorruptDocument(err)
	}
	return d, nil
}

func marshalDocument(d *tidemark.Document) ([]byte, error) {
	v, err := json.Marshal(d)
	if err != nil {
		return nil, ErrCorruptDocument(err)
	}
	return v, nil
}

func (s *Store) putDocument(tx kv.Tx, d *tidemark.Document) error {
	v, err := marshalDocument(d)
	if err != nil {
		return err
	}

	b, err := tx.Bucket(documentBucket)
	if err != nil {
		return ErrInternalServiceError(err)
	}
	if err := b.Put([]byte(d.ID), v); err != nil {
		return ErrInternalServiceError(err)
	}

	idx, err := tx.Bucket(workspaceIndexBucket)
	if err != nil {
		return ErrInternalServiceError(err)
	}
	if err := idx.Put(workspaceIndexKey(d.WorkspaceID, d.ID), []byte(d.ID)); err != nil {
		return ErrInternalServiceError(err)
	}
	return nil
}

// createDocument refuses to replace a stored document. A put under an
// existing ID would reassign its workspace and orphan the old index entry,
// leaving the document deletable through the old workspace's sweep.
func (s *Store) createDocument(tx kv.Tx, d *tidemark.Document) error {
	b, err := tx.Bucket(documentBucket)
	if err != nil {
		return ErrInternalServiceError(err)
	}
	if _, err := b.Get([]byte(d.ID)); err == nil {
		return ErrDocumentExists
	} else if !kv.IsNotFound(err) {
		return ErrInternalServiceError(err)
	}
	return s.putDocument(tx, d)
}

func (s *Store) getDocument(tx kv.Tx, id string) (*tidemark.Document, error) {
	b, err := tx.Bucket(documentBucket)
	if err != nil {
		return nil, ErrInternalServiceError(err)
	}

	v, err := b.Get([]byte(id))
	if kv.IsNotFound(err) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, ErrInternalServiceError(err)
	}
	return unmarshalDocument(v)
}

func (s *Store) deleteDocument(tx kv.Tx, id string) error {
	d, err := s.getDocument(tx, id)
	if err != nil {
		return err
	}

	b, err := tx.Bucket(documentBucket)
	if err != nil {
		return ErrInternalServiceError(err)
	}
	if err := b.Delete([]byte(id)); err != nil {
		return ErrInternalServiceError(err)
	}

	idx, err := tx.Bucket(workspaceIndexBucket)
	if err != nil {
		return ErrInternalServiceError(err)
	}
	if err := idx.Delete(workspaceIndexKey(d.WorkspaceID, d.ID)); err != nil {
		return ErrInternalServiceError(err)
	}
	return nil
}

// FindWorkspaceIDs performs the projection fetch behind the reference
// integrity check: one batched read mapping each existing document ID to
// its workspace. IDs with no stored document are omitted.
func (s *Store) FindWorkspaceIDs(ctx context.Context, ids []string) (map[string]string, error) {
	found := make(map[string]string, len(ids))
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(documentBucket)
		if err != nil {
			return ErrInternalServiceError(err)
		}

		for _, id := range ids {
			v, err := b.Get([]byte(id))
			if kv.IsNotFound(err) {
				continue
			}
			if err != nil {
				return ErrInternalServiceError(err)
			}

			// projection decode, the content body stays untouched
			var proj struct {
				WorkspaceID string `json:"workspaceID"`
			}
			if err := json.Unmarshal(v, &proj); err != nil {
				return ErrCorruptDocument(err)
			}
			found[id] = proj.WorkspaceID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// DeleteByWorkspace removes every document scoped to workspaceID and
// returns the number removed. A workspace with no documents deletes zero
// and succeeds.
func (s *Store) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	if !tidemark.ValidWorkspaceID(workspaceID) {
		return 0, tidemark.ErrWorkspaceIDRequired
	}

	var n int
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		idx, err := tx.Bucket(workspaceIndexBucket)
		if err != nil {
			return ErrInternalServiceError(err)
		}
		docs, err := tx.Bucket(documentBucket)
		if err != nil {
			return ErrInternalServiceError(err)
		}

		cur, err := idx.Cursor()
		if err != nil {
			return ErrInternalServiceError(err)
		}

		prefix := workspaceIndexKey(workspaceID, "")
		var indexKeys [][]byte
		var docIDs [][]byte
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			indexKeys = append(indexKeys, append([]byte(nil), k...))
			docIDs = append(docIDs, append([]byte(nil), v...))
		}

		for i, id := range docIDs {
			if err := docs.Delete(id); err != nil {
				return ErrInternalServiceError(err)
			}
			if err := idx.Delete(indexKeys[i]); err != nil {
				return ErrInternalServiceError(err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

var _ tidemark.DocumentStore = (*Store)(nil)
