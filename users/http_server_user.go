package users

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/influxdata/userd"
	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/platform/errors"
	kithttp "github.com/influxdata/userd/kit/transport/http"
	"go.uber.org/zap"
)

const (
	prefixUsers = "/users"

	msgFetchUsersFailed = "Error fetching users"
	msgAddUserFailed    = "Error adding user"
	msgUpdateUserFailed = "Error updating user"
	msgDeleteUserFailed = "Error deleting user"
	msgUserNotFound     = "User not found"
	msgUserDeleted      = "User deleted successfully"
	msgRouteNotFound    = "Not found"
	msgMethodNotAllowed = "Method not allowed"
)

// UserHandler represents an HTTP API handler for users.
type UserHandler struct {
	chi.Router
	api         *kithttp.API
	log         *zap.Logger
	userService userd.UserService
}

// NewHTTPUserHandler constructs a new http server for users.
func NewHTTPUserHandler(log *zap.Logger, userService userd.UserService) *UserHandler {
	svr := &UserHandler{
		api:         kithttp.NewAPI(kithttp.WithLog(log)),
		log:         log,
		userService: userService,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.RealIP,
	)
	r.NotFound(svr.handleNotFound)
	r.MethodNotAllowed(svr.handleMethodNotAllowed)

	r.Route("/", func(r chi.Router) {
		r.Get("/", svr.handleGetUsers)
		r.Post("/", svr.handlePostUser)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", svr.handlePutUser)
			r.Delete("/", svr.handleDeleteUser)
		})
	})

	svr.Router = r
	return svr
}

// Prefix is the path the handler is mounted at.
func (h *UserHandler) Prefix() string {
	return prefixUsers
}

type messageResponse struct {
	Message string `json:"message"`
}

// handleGetUsers is the HTTP handler for the GET /users route.
func (h *UserHandler) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.FindUsers(r.Context())
	if err != nil {
		h.userError(w, r, err, http.StatusInternalServerError, msgFetchUsersFailed)
		return
	}

	h.api.Respond(w, r, http.StatusOK, users)
}

// handlePostUser is the HTTP handler for the POST /users route.
func (h *UserHandler) handlePostUser(w http.ResponseWriter, r *http.Request) {
	var in userd.UserInput
	if err := h.api.DecodeJSON(r.Body, &in); err != nil {
		h.userError(w, r, err, http.StatusBadRequest, msgAddUserFailed)
		return
	}

	u, err := h.userService.CreateUser(r.Context(), in)
	if err != nil {
		h.userError(w, r, err, http.StatusBadRequest, msgAddUserFailed)
		return
	}

	h.api.Respond(w, r, http.StatusCreated, u)
}

// handlePutUser is the HTTP handler for the PUT /users/{id} route.
func (h *UserHandler) handlePutUser(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDFromRequest(r)
	if err != nil {
		h.userError(w, r, err, http.StatusBadRequest, msgUpdateUserFailed)
		return
	}

	var in userd.UserInput
	if err := h.api.DecodeJSON(r.Body, &in); err != nil {
		h.userError(w, r, err, http.StatusBadRequest, msgUpdateUserFailed)
		return
	}

	u, err := h.userService.UpdateUser(r.Context(), id, in)
	if err != nil {
		if errors.ErrorCode(err) == errors.ENotFound {
			h.userError(w, r, err, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.userError(w, r, err, http.StatusBadRequest, msgUpdateUserFailed)
		return
	}

	h.api.Respond(w, r, http.StatusOK, u)
}

// handleDeleteUser is the HTTP handler for the DELETE /users/{id} route.
func (h *UserHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDFromRequest(r)
	if err != nil {
		h.userError(w, r, err, http.StatusInternalServerError, msgDeleteUserFailed)
		return
	}

	if _, err := h.userService.DeleteUser(r.Context(), id); err != nil {
		if errors.ErrorCode(err) == errors.ENotFound {
			h.userError(w, r, err, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.userError(w, r, err, http.StatusInternalServerError, msgDeleteUserFailed)
		return
	}

	h.api.Respond(w, r, http.StatusOK, messageResponse{Message: msgUserDeleted})
}

func (h *UserHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.userError(w, r, &errors.Error{
		Code: errors.ENotFound,
		Msg:  "path not found",
	}, http.StatusNotFound, msgRouteNotFound)
}

func (h *UserHandler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.userError(w, r, &errors.Error{
		Code: errors.EMethodNotAllowed,
		Msg:  r.Method + " is not allowed on " + r.URL.Path,
	}, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// userError writes a failure with the route's fixed status and message.
// The body never carries err; its platform code goes in a header.
func (h *UserHandler) userError(w http.ResponseWriter, r *http.Request, err error, status int, msg string) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("code", errors.ErrorCode(err)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.log.Error(msg, fields...)
	} else {
		h.log.Debug(msg, fields...)
	}

	w.Header().Set(kithttp.PlatformErrorCodeHeader, errors.ErrorCode(err))
	h.api.Respond(w, r, status, messageResponse{Message: msg})
}

func decodeIDFromRequest(r *http.Request) (platform.ID, error) {
	var i platform.ID
	if err := i.DecodeFromString(chi.URLParam(r, "id")); err != nil {
		return 0, InvalidUserIDError(err)
	}
	return i, nil
}
