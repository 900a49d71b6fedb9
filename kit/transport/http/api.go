package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/influxdata/userd/kit/platform/errors"
	"go.uber.org/zap"
)

// API provides a consolidation of common http behavior for the handlers
// of a resource: decoding request bodies, writing JSON responses and
// encoding errors.
type API struct {
	logger *zap.Logger

	errHandler errors.HTTPErrorHandler
}

// APIOptFn is a functional option for setting fields on the API type.
type APIOptFn func(*API)

// WithLog sets the logger.
func WithLog(logger *zap.Logger) APIOptFn {
	return func(api *API) {
		api.logger = logger
	}
}

// NewAPI creates a new API type.
func NewAPI(opts ...APIOptFn) *API {
	api := API{
		logger:     zap.NewNop(),
		errHandler: ErrorHandler(0),
	}
	for _, o := range opts {
		o(&api)
	}
	return &api
}

// DecodeJSON decodes a body holding exactly one JSON value into v. Only
// whitespace may follow the value.
func (a *API) DecodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  "failed to unmarshal json",
			Err:  err,
		}
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  "request body must hold a single json value",
			Err:  err,
		}
	}
	return nil
}

// Respond writes to the response writer, handling all errors in writing.
func (a *API) Respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	b, err := json.Marshal(v)
	// error is about marshalling response, not the request
	if err != nil {
		a.Err(w, r, &errors.Error{
			Code: errors.EInternal,
			Msg:  "failed to encode response",
			Err:  err,
		})
		return
	}

	a.Write(w, status, b)
}

// Write allows the user to write raw bytes to the response writer. This
// operation does not have a fail case, all failures here will be logged.
func (a *API) Write(w http.ResponseWriter, status int, b []byte) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		a.logErr("failed to write to response writer", zap.Error(err))
	}
}

// Err is used for writing an error to the response.
func (a *API) Err(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	a.errHandler.HandleHTTPError(r.Context(), err, w)
}

func (a *API) logErr(msg string, fields ...zap.Field) {
	if a.logger == nil {
		return
	}
	a.logger.Error(msg, fields...)
}
