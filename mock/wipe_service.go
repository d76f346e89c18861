package mock

import (
	"context"

	"github.com/tidemark-io/tidemark"
)

var _ tidemark.WipeService = &WipeService{}

// WipeService is a mock wipe orchestrator.
type WipeService struct {
	WipeF func(ctx context.Context, req tidemark.WipeRequest) error
}

// NewWipeService returns a mock WipeService whose methods succeed.
func NewWipeService() *WipeService {
	return &WipeService{
		WipeF: func(ctx context.Context, req tidemark.WipeRequest) error {
			return nil
		},
	}
}

// Wipe calls WipeF.
func (s *WipeService) Wipe(ctx context.Context, req tidemark.WipeRequest) error {
	return s.WipeF(ctx, req)
}
