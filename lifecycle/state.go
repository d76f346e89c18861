package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/tidemark-io/tidemark/kv"
)

var wipeStateBucket = []byte("wipestatesv1")

// WipeState is the workflow-state record written on every stage
// transition. There is no cross-store atomicity between the deletion
// stages, so the record is what makes a crashed orchestration observable
// and re-runnable instead of silently half-done.
type WipeState struct {
	ID        string    `json:"id"`
	Workspace string    `json:"workspace"`
	Stage     Stage     `json:"stage"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateStore persists wipe workflow state in the kv store under
// "<workspace>/<workflow id>".
type StateStore struct {
	kv kv.Store
}

// NewStateStore returns a state store on top of store.
func NewStateStore(store kv.Store) *StateStore {
	return &StateStore{kv: store}
}

func stateKey(workspace, id string) []byte {
	k := make([]byte, 0, len(workspace)+len(id)+1)
	k = append(k, workspace...)
	k = append(k, '/')
	k = append(k, id...)
	return k
}

// Record upserts the state record for one workflow invocation.
func (s *StateStore) Record(ctx context.Context, state WipeState) error {
	state.UpdatedAt = time.Now().UTC()
	v, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.kv.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(wipeStateBucket)
		if err != nil {
			return err
		}
		return b.Put(stateKey(state.Workspace, state.ID), v)
	})
}

// Find returns every recorded workflow state for workspace.
func (s *StateStore) Find(ctx context.Context, workspace string) ([]WipeState, error) {
	var states []WipeState
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket(wipeStateBucket)
		if err != nil {
			return err
		}
		cur, err := b.Cursor()
		if err != nil {
			return err
		}

		prefix := stateKey(workspace, "")
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			var st WipeState
			if err := json.Unmarshal(v, &st); err != nil {
				return err
			}
			states = append(states, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}
