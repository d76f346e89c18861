package bus

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

var (
	// ErrUnsupportedMessageType rejects callbacks with an unknown message
	// type header.
	ErrUnsupportedMessageType = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "unsupported bus message type",
	}

	// ErrMalformedEnvelope rejects callbacks whose body is empty or does
	// not decode.
	ErrMalformedEnvelope = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "malformed bus envelope",
	}
)

// HandshakeConfirmationError wraps a failed confirmation fetch. The
// handshake is not retried here; the upstream bus redelivers it on its own
// schedule until confirmation is observed.
func HandshakeConfirmationError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "bus subscription confirmation failed",
		Op:   "bus.Handler",
		Err:  err,
	}
}

// Handler validates and classifies inbound bus callbacks. Handshakes are
// confirmed inline with a single outbound GET; notifications are decoded,
// attached to the request context and delegated to next without writing a
// response.
type Handler struct {
	errors.HTTPErrorHandler
	log      *zap.Logger
	verifier OriginVerifier
	client   *http.Client
	next     http.Handler
	metrics  *handlerMetrics
}

// NewHandler returns a bus handler delegating valid notifications to next.
// confirmTimeout bounds the outbound handshake confirmation call.
func NewHandler(log *zap.Logger, verifier OriginVerifier, confirmTimeout time.Duration, next http.Handler) *Handler {
	return &Handler{
		HTTPErrorHandler: kithttpErrorHandler,
		log:              log,
		verifier:         verifier,
		client:           &http.Client{Timeout: confirmTimeout},
		next:             next,
		metrics:          newHandlerMetrics(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	msgType := r.Header.Get(HeaderMessageType)
	switch msgType {
	case MessageTypeHandshake, MessageTypeNotification:
	default:
		h.metrics.observe(msgType, "unsupported_type")
		h.HandleHTTPError(ctx, ErrUnsupportedMessageType, w)
		return
	}

	if err := h.verifier.Verify(ctx, r.Header.Get(HeaderTopicID)); err != nil {
		h.metrics.observe(msgType, "untrusted_topic")
		h.HandleHTTPError(ctx, err, w)
		return
	}

	env, err := decodeEnvelope(r.Body)
	if err != nil {
		h.metrics.observe(msgType, "malformed")
		h.HandleHTTPError(ctx, err, w)
		return
	}

	switch msgType {
	case MessageTypeHandshake:
		h.handleHandshake(w, r, env)
	case MessageTypeNotification:
		h.handleNotification(w, r, env)
	}
}

func decodeEnvelope(body io.Reader) (*Envelope, error) {
	raw, err := io.ReadAll(body)
	if err != nil || len(raw) == 0 {
		return nil, ErrMalformedEnvelope
	}
	env := &Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, ErrMalformedEnvelope
	}
	return env, nil
}

// handleHandshake confirms the subscription by fetching the envelope's
// confirmation URL once. Anything but a 200 is a failure; retry ownership
// belongs to the upstream bus.
func (h *Handler) handleHandshake(w http.ResponseWriter, r *http.Request, env *Envelope) {
	ctx := r.Context()
	if env.SubscribeURL == "" {
		h.metrics.observe(MessageTypeHandshake, "malformed")
		h.HandleHTTPError(ctx, ErrMalformedEnvelope, w)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.SubscribeURL, nil)
	if err != nil {
		h.metrics.observe(MessageTypeHandshake, "malformed")
		h.HandleHTTPError(ctx, ErrMalformedEnvelope, w)
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Error("Bus handshake confirmation failed",
			zap.String("subscribe_url", env.SubscribeURL),
			zap.Error(err))
		h.metrics.observe(MessageTypeHandshake, "confirmation_failed")
		h.HandleHTTPError(ctx, HandshakeConfirmationError(err), w)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("confirmation endpoint returned %d", resp.StatusCode)
		h.log.Error("Bus handshake confirmation rejected",
			zap.String("subscribe_url", env.SubscribeURL),
			zap.Int("status", resp.StatusCode))
		h.metrics.observe(MessageTypeHandshake, "confirmation_failed")
		h.HandleHTTPError(ctx, HandshakeConfirmationError(err), w)
		return
	}

	h.log.Info("Bus subscription confirmed", zap.String("topic", r.Header.Get(HeaderTopicID)))
	h.metrics.observe(MessageTypeHandshake, "ok")
	encodeAck(w)
}

// handleNotification decodes the embedded payload, attaches it to the
// request context and hands control to the next handler. The response is
// the downstream handler's to write.
func (h *Handler) handleNotification(w http.ResponseWriter, r *http.Request, env *Envelope) {
	if env.Message == "" || !json.Valid([]byte(env.Message)) {
		h.metrics.observe(MessageTypeNotification, "malformed")
		h.HandleHTTPError(r.Context(), ErrMalformedEnvelope, w)
		return
	}

	n := Notification{
		Payload:        json.RawMessage(env.Message),
		UnsubscribeURL: env.UnsubscribeURL,
	}
	h.metrics.observe(MessageTypeNotification, "ok")
	h.next.ServeHTTP(w, r.WithContext(NewContextWithNotification(r.Context(), n)))
}

func encodeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"code":200,"data":{"success":true}}`))
}
