package tidemark

import (
	"strings"
	"time"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

// Workspace is the tenant boundary. Every document and every stored object
// key belongs to exactly one workspace, assigned at creation and never
// reassigned.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrWorkspaceIDRequired is returned when an operation that must be scoped to
// a workspace is invoked without one. This indicates a caller bug, not bad
// user input.
var ErrWorkspaceIDRequired = &errors.Error{
	Code: errors.EInternal,
	Msg:  "workspace id is required",
}

// ValidWorkspaceID reports whether id is usable as a workspace identifier.
func ValidWorkspaceID(id string) bool {
	return strings.TrimSpace(id) != ""
}
