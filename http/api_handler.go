package http

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi"
	"github.com/influxdata/userd/kit/platform/errors"
	kithttp "github.com/influxdata/userd/kit/transport/http"
	"go.uber.org/zap"
)

// ResourceHandler is an HTTP handler for a resource. The prefix
// describes the url path prefix that relates to the handler
// endpoints.
type ResourceHandler interface {
	Prefix() string
	http.Handler
}

// APIHandler routes requests to the resource handlers mounted on it.
type APIHandler struct {
	chi.Router
	api *kithttp.API
}

// APIHandlerOptFn is a functional input param to set parameters on
// the APIHandler.
type APIHandlerOptFn func(*APIHandler)

// WithResourceHandler registers a resource handler on the APIHandler.
func WithResourceHandler(resHandler ResourceHandler) APIHandlerOptFn {
	return func(h *APIHandler) {
		h.Mount(resHandler.Prefix(), resHandler)
	}
}

// NewAPIHandler returns a gzip capable router whose unknown routes answer
// with a coded not found error.
func NewAPIHandler(log *zap.Logger, opts ...APIHandlerOptFn) *APIHandler {
	h := &APIHandler{
		api: kithttp.NewAPI(kithttp.WithLog(log)),
	}

	r := chi.NewRouter()
	r.Use(gziphandler.GzipHandler)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.api.Err(w, r, &errors.Error{
			Code: errors.ENotFound,
			Msg:  "path not found",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.api.Err(w, r, &errors.Error{
			Code: errors.EMethodNotAllowed,
			Msg:  "method not allowed",
		})
	})
	h.Router = r

	for _, o := range opts {
		o(h)
	}
	return h
}
