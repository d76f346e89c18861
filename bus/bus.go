// Package bus receives inbound event-bus callbacks, authenticates their
// topic of origin and dispatches typed payloads to downstream handlers.
//
// The bus delivers two kinds of callbacks to the same endpoint: a one-time
// subscription handshake that must be confirmed by fetching a URL from the
// body, and notifications whose payload is a JSON-encoded string embedded
// in the envelope. The adapter validates and classifies every callback
// before any business logic runs; payload semantics belong to whatever
// handler sits behind it.
package bus

import (
	"context"
	"encoding/json"
)

// Envelope headers set by the bus on every callback.
const (
	HeaderMessageType = "X-Bus-Message-Type"
	HeaderTopicID     = "X-Bus-Topic-Id"
)

// Message types carried in HeaderMessageType.
const (
	MessageTypeHandshake    = "HandshakeRequest"
	MessageTypeNotification = "Notification"
)

// Envelope is the JSON body of a bus callback.
type Envelope struct {
	Type string `json:"Type"`
	// SubscribeURL is the one-time confirmation URL on handshake
	// envelopes.
	SubscribeURL string `json:"SubscribeURL,omitempty"`
	// Message is the notification payload, itself a JSON-encoded string.
	Message string `json:"Message,omitempty"`
	// UnsubscribeURL can be called later to cancel the subscription.
	UnsubscribeURL string `json:"UnsubscribeURL,omitempty"`
}

// Notification is the decoded payload handed to the downstream handler.
type Notification struct {
	Payload        json.RawMessage
	UnsubscribeURL string
}

type notificationContextKey struct{}

// NewContextWithNotification attaches n to ctx for the downstream handler.
func NewContextWithNotification(ctx context.Context, n Notification) context.Context {
	return context.WithValue(ctx, notificationContextKey{}, n)
}

// NotificationFromContext returns the notification attached by the adapter,
// if any.
func NotificationFromContext(ctx context.Context) (Notification, bool) {
	n, ok := ctx.Value(notificationContextKey{}).(Notification)
	return n, ok
}
