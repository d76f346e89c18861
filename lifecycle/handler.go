package lifecycle

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tidemark-io/tidemark"
	"github.com/tidemark-io/tidemark/bus"
	"github.com/tidemark-io/tidemark/kit/platform/errors"
	kithttp "github.com/tidemark-io/tidemark/kit/transport/http"
)

// WipeHandler is the terminal handler behind the bus adapter. It decodes
// the notification payload into a wipe request, kicks off the workflow and
// acknowledges receipt. The workflow's outcome is one-way: observable via
// logs and metrics, never via this response.
type WipeHandler struct {
	errors.HTTPErrorHandler
	log *zap.Logger
	svc tidemark.WipeService
}

// NewWipeHandler returns a handler launching wipes on svc.
func NewWipeHandler(log *zap.Logger, svc tidemark.WipeService) *WipeHandler {
	return &WipeHandler{
		HTTPErrorHandler: kithttp.ErrorHandler(0),
		log:              log,
		svc:              svc,
	}
}

func (h *WipeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, ok := bus.NotificationFromContext(ctx)
	if !ok {
		h.HandleHTTPError(ctx, &errors.Error{
			Code: errors.EInternal,
			Msg:  "notification missing from request context",
			Op:   "lifecycle.WipeHandler",
		}, w)
		return
	}

	var req tidemark.WipeRequest
	if err := json.Unmarshal(n.Payload, &req); err != nil {
		h.HandleHTTPError(ctx, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "wipe payload does not decode",
			Err:  err,
		}, w)
		return
	}
	if !tidemark.ValidWorkspaceID(req.Workspace) {
		h.HandleHTTPError(ctx, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "wipe payload is missing a workspace",
		}, w)
		return
	}

	// The request is acknowledged as soon as it is accepted; the wipe
	// outlives this HTTP exchange.
	wipeCtx := context.WithoutCancel(ctx)
	go func() {
		if err := h.svc.Wipe(wipeCtx, req); err != nil {
			h.log.Error("Background wipe failed",
				zap.String("workspace", req.Workspace),
				zap.Error(err))
		}
	}()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"code":200,"data":{"success":true}}`))
}
