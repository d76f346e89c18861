package document

import (
	"context"
	"sort"

	"github.com/tidemark-io/tidemark"
)

// IntegrityChecker enforces that a document's declared references never
// cross workspace boundaries. It runs as a guard on the write path, before
// the referencing document is persisted.
//
// The check is one batched unlocked read; a concurrent workspace
// reassignment elsewhere can race it. Nothing in this subsystem reassigns
// workspaces, so the gap is documented rather than guarded.
type IntegrityChecker struct {
	resolver tidemark.ReferenceResolver

	// strict turns references to nonexistent documents into failures.
	// The default tolerates them: dangling references are a separate
	// concern from workspace scoping.
	strict bool
}

// IntegrityOption configures an IntegrityChecker.
type IntegrityOption func(*IntegrityChecker)

// WithStrictReferences makes references to missing documents a validation
// failure instead of silently excluding them.
func WithStrictReferences() IntegrityOption {
	return func(c *IntegrityChecker) { c.strict = true }
}

// NewIntegrityChecker returns a checker resolving references through
// resolver.
func NewIntegrityChecker(resolver tidemark.ReferenceResolver, opts ...IntegrityOption) *IntegrityChecker {
	c := &IntegrityChecker{resolver: resolver}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckReferences succeeds when every referenced document that exists
// belongs to workspaceID. An empty reference set succeeds without touching
// the store. An empty workspaceID is a caller bug and reports as an
// internal error, not user-facing validation.
func (c *IntegrityChecker) CheckReferences(ctx context.Context, workspaceID string, refIDs []string) error {
	if !tidemark.ValidWorkspaceID(workspaceID) {
		return tidemark.ErrWorkspaceIDRequired
	}
	if len(refIDs) == 0 {
		return nil
	}

	found, err := c.resolver.FindWorkspaceIDs(ctx, refIDs)
	if err != nil {
		return err
	}

	var crossed []string
	for id, ws := range found {
		if ws != workspaceID {
			crossed = append(crossed, id)
		}
	}
	if len(crossed) > 0 {
		sort.Strings(crossed)
		return CrossWorkspaceReferenceError(crossed)
	}

	if c.strict {
		var missing []string
		for _, id := range refIDs {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return MissingReferenceError(missing)
		}
	}

	return nil
}
