package bus

import (
	"context"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

// OriginVerifier authenticates the topic a callback claims to come from.
// The static implementation is a shared-secret comparison; deployments
// wanting signature-based verification substitute their own without
// touching dispatch logic.
type OriginVerifier interface {
	Verify(ctx context.Context, topicID string) error
}

// ErrUntrustedTopic rejects callbacks whose topic identifier does not match
// the deployment's trusted topic.
var ErrUntrustedTopic = &errors.Error{
	Code: errors.EInvalid,
	Msg:  "untrusted topic identifier",
}

// StaticTopicVerifier accepts exactly one pre-configured topic identifier.
// This is the sole authentication on the bus channel, so deployments must
// restrict network reachability of the endpoint.
type StaticTopicVerifier struct {
	TopicID string
}

// Verify returns ErrUntrustedTopic unless topicID equals the configured
// identifier.
func (v StaticTopicVerifier) Verify(_ context.Context, topicID string) error {
	if topicID != v.TopicID {
		return ErrUntrustedTopic
	}
	return nil
}
