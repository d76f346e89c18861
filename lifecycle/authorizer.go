package lifecycle

import (
	"context"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

// Authorizer decides whether this process may destroy the workspace's
// data. The decision mechanics live outside this subsystem; it only
// promises to ask before any deletion begins.
type Authorizer interface {
	AuthorizeWipe(ctx context.Context, workspace string) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, workspace string) error

// AuthorizeWipe calls f.
func (f AuthorizerFunc) AuthorizeWipe(ctx context.Context, workspace string) error {
	return f(ctx, workspace)
}

// OpenAuthorizer permits every wipe. Deployments restrict the bus endpoint
// at the network layer instead.
var OpenAuthorizer = AuthorizerFunc(func(context.Context, string) error {
	return nil
})

// ErrWipeForbidden is the rejection an Authorizer should return.
var ErrWipeForbidden = &errors.Error{
	Code: errors.EForbidden,
	Msg:  "not authorized to wipe workspace data",
}
