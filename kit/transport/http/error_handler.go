package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

// PlatformErrorCodeHeader carries the machine-readable error code of the
// platform error alongside the JSON body.
const PlatformErrorCodeHeader = "X-Platform-Error-Code"

// ErrorHandler is the stateless errors.HTTPErrorHandler used by every
// transport in this module.
type ErrorHandler int

// HandleHTTPError encodes err with the status code its platform error code
// maps to and a {code, message} JSON body.
func (h ErrorHandler) HandleHTTPError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		return
	}

	code := errors.ErrorCode(err)
	httpCode, ok := statusCodePlatformError[code]
	if !ok {
		httpCode = http.StatusBadRequest
	}
	w.Header().Set(PlatformErrorCodeHeader, code)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpCode)

	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	e.Code = code
	if perr, ok := err.(*errors.Error); ok {
		e.Message = perr.Error()
	} else {
		e.Message = "an internal error has occurred"
	}
	b, _ := json.Marshal(e)
	_, _ = w.Write(b)
}

// statusCodePlatformError maps platform error codes to HTTP status codes.
var statusCodePlatformError = map[string]int{
	errors.EInternal:     http.StatusInternalServerError,
	errors.EInvalid:      http.StatusBadRequest,
	errors.EConflict:     http.StatusUnprocessableEntity,
	errors.ENotFound:     http.StatusNotFound,
	errors.EUnavailable:  http.StatusServiceUnavailable,
	errors.EForbidden:    http.StatusForbidden,
	errors.EUnauthorized: http.StatusUnauthorized,
}
