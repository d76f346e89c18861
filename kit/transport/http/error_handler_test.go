package http_test

import (
	"context"
	stderrors "errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
	kithttp "github.com/tidemark-io/tidemark/kit/transport/http"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation failure",
			err:        &errors.Error{Code: errors.EInvalid, Msg: "untrusted topic identifier"},
			wantStatus: nethttp.StatusBadRequest,
			wantBody:   `{"code":"invalid","message":"untrusted topic identifier"}`,
		},
		{
			name:       "backend failure",
			err:        &errors.Error{Code: errors.EInternal, Msg: "object store operation failed"},
			wantStatus: nethttp.StatusInternalServerError,
			wantBody:   `{"code":"internal error","message":"object store operation failed"}`,
		},
		{
			name:       "not found",
			err:        &errors.Error{Code: errors.ENotFound, Msg: "document not found"},
			wantStatus: nethttp.StatusNotFound,
			wantBody:   `{"code":"not found","message":"document not found"}`,
		},
		{
			name:       "non-platform errors leak nothing",
			err:        stderrors.New("pq: secret table missing"),
			wantStatus: nethttp.StatusInternalServerError,
			wantBody:   `{"code":"internal error","message":"an internal error has occurred"}`,
		},
	}

	h := kithttp.ErrorHandler(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleHTTPError(context.Background(), tt.err, w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Equal(t, errors.ErrorCode(tt.err), w.Header().Get(kithttp.PlatformErrorCodeHeader))
		})
	}
}

func TestErrorHandlerNilError(t *testing.T) {
	w := httptest.NewRecorder()
	kithttp.ErrorHandler(0).HandleHTTPError(context.Background(), nil, w)
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestStatusResponseWriter(t *testing.T) {
	w := kithttp.NewStatusResponseWriter(httptest.NewRecorder())
	assert.Equal(t, nethttp.StatusOK, w.Code())

	w.WriteHeader(nethttp.StatusBadGateway)
	_, _ = w.Write([]byte("bad gateway"))
	assert.Equal(t, nethttp.StatusBadGateway, w.Code())
	assert.Equal(t, "5XX", w.StatusCodeClass())
	assert.Equal(t, len("bad gateway"), w.ResponseBytes())
}
