package users_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/influxdata/userd"
	"github.com/influxdata/userd/inmem"
	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/platform/errors"
	kithttp "github.com/influxdata/userd/kit/transport/http"
	"github.com/influxdata/userd/mock"
	"github.com/influxdata/userd/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testUserID = "020f755c3c082000"

func newTestServer(t *testing.T, svc userd.UserService) *httptest.Server {
	t.Helper()

	handler := users.NewHTTPUserHandler(zaptest.NewLogger(t), svc)
	r := chi.NewRouter()
	r.Mount(handler.Prefix(), handler)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func newInmemService(t *testing.T) userd.UserService {
	t.Helper()

	store, err := users.NewStore(context.Background(), inmem.NewKVStore())
	require.NoError(t, err)
	return users.NewService(store)
}

func doRequest(t *testing.T, method, url string, body string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestUserHandler_Scenario(t *testing.T) {
	server := newTestServer(t, newInmemService(t))
	base := server.URL + "/users"

	resp, body := doRequest(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = doRequest(t, http.MethodPost, base, `{"name":"Ann","email":"ann@x.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ann userd.User
	require.NoError(t, json.Unmarshal(body, &ann))
	require.True(t, ann.ID.Valid())
	assert.Equal(t, "Ann", ann.Name)
	assert.Equal(t, "ann@x.com", ann.Email)

	resp, body = doRequest(t, http.MethodPost, base, `{"name":"Bob","email":"ann@x.com"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Error adding user"}`, string(body))
	assert.Equal(t, errors.EConflict, resp.Header.Get(kithttp.PlatformErrorCodeHeader))

	resp, body = doRequest(t, http.MethodPut, base+"/"+ann.ID.String(), `{"name":"Annie","email":"annie@x.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var annie userd.User
	require.NoError(t, json.Unmarshal(body, &annie))
	assert.Equal(t, userd.User{ID: ann.ID, Name: "Annie", Email: "annie@x.com"}, annie)

	resp, body = doRequest(t, http.MethodDelete, base+"/"+ann.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"User deleted successfully"}`, string(body))

	resp, body = doRequest(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = doRequest(t, http.MethodDelete, base+"/"+ann.ID.String(), "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"User not found"}`, string(body))
}

func TestUserHandler_ErrorPolicy(t *testing.T) {
	notFound := &errors.Error{Code: errors.ENotFound, Msg: "user not found"}
	conflict := &errors.Error{Code: errors.EConflict, Msg: "user with email a@x.io already exists"}
	unavailable := &errors.Error{Code: errors.EUnavailable, Msg: "user store is unavailable"}

	tests := []struct {
		name     string
		svc      func(*mock.UserService)
		method   string
		path     string
		body     string
		status   int
		message  string
		codeHdr  string
		noCallTo bool
	}{
		{
			name: "list failure is a 500",
			svc: func(s *mock.UserService) {
				s.FindUsersFn = func(context.Context) ([]*userd.User, error) { return nil, unavailable }
			},
			method:  http.MethodGet,
			path:    "/users",
			status:  http.StatusInternalServerError,
			message: "Error fetching users",
			codeHdr: errors.EUnavailable,
		},
		{
			name: "create conflict is a 400",
			svc: func(s *mock.UserService) {
				s.CreateUserFn = func(context.Context, userd.UserInput) (*userd.User, error) { return nil, conflict }
			},
			method:  http.MethodPost,
			path:    "/users",
			body:    `{"name":"A","email":"a@x.io"}`,
			status:  http.StatusBadRequest,
			message: "Error adding user",
			codeHdr: errors.EConflict,
		},
		{
			name: "create store failure is a 400",
			svc: func(s *mock.UserService) {
				s.CreateUserFn = func(context.Context, userd.UserInput) (*userd.User, error) { return nil, unavailable }
			},
			method:  http.MethodPost,
			path:    "/users",
			body:    `{"name":"A","email":"a@x.io"}`,
			status:  http.StatusBadRequest,
			message: "Error adding user",
			codeHdr: errors.EUnavailable,
		},
		{
			name:     "create with malformed json",
			method:   http.MethodPost,
			path:     "/users",
			body:     `{"name":`,
			status:   http.StatusBadRequest,
			message:  "Error adding user",
			codeHdr:  errors.EInvalid,
			noCallTo: true,
		},
		{
			name:     "create with text after the body",
			method:   http.MethodPost,
			path:     "/users",
			body:     `{"name":"A","email":"a@x.io"} not json at all`,
			status:   http.StatusBadRequest,
			message:  "Error adding user",
			codeHdr:  errors.EInvalid,
			noCallTo: true,
		},
		{
			name:     "create with two json objects",
			method:   http.MethodPost,
			path:     "/users",
			body:     `{"name":"B","email":"b@x.io"}{"name":"C"}`,
			status:   http.StatusBadRequest,
			message:  "Error adding user",
			codeHdr:  errors.EInvalid,
			noCallTo: true,
		},
		{
			name:     "update with text after the body",
			method:   http.MethodPut,
			path:     "/users/" + testUserID,
			body:     `{"name":"A","email":"a@x.io"} trailing`,
			status:   http.StatusBadRequest,
			message:  "Error updating user",
			codeHdr:  errors.EInvalid,
			noCallTo: true,
		},
		{
			name:     "unsupported method on a user",
			method:   http.MethodPatch,
			path:     "/users/" + testUserID,
			body:     `{"name":"A"}`,
			status:   http.StatusMethodNotAllowed,
			message:  "Method not allowed",
			codeHdr:  errors.EMethodNotAllowed,
			noCallTo: true,
		},
		{
			name:     "unsupported method on the collection",
			method:   http.MethodDelete,
			path:     "/users",
			status:   http.StatusMethodNotAllowed,
			message:  "Method not allowed",
			codeHdr:  errors.EMethodNotAllowed,
			noCallTo: true,
		},
		{
			name:     "unknown path below a user",
			method:   http.MethodGet,
			path:     "/users/" + testUserID + "/friends",
			status:   http.StatusNotFound,
			message:  "Not found",
			codeHdr:  errors.ENotFound,
			noCallTo: true,
		},
		{
			name: "update not found is a 404",
			svc: func(s *mock.UserService) {
				s.UpdateUserFn = func(context.Context, platform.ID, userd.UserInput) (*userd.User, error) { return nil, notFound }
			},
			method:  http.MethodPut,
			path:    "/users/" + testUserID,
			body:    `{"name":"A","email":"a@x.io"}`,
			status:  http.StatusNotFound,
			message: "User not found",
			codeHdr: errors.ENotFound,
		},
		{
			name: "update conflict is a 400",
			svc: func(s *mock.UserService) {
				s.UpdateUserFn = func(context.Context, platform.ID, userd.UserInput) (*userd.User, error) { return nil, conflict }
			},
			method:  http.MethodPut,
			path:    "/users/" + testUserID,
			body:    `{"name":"A","email":"a@x.io"}`,
			status:  http.StatusBadRequest,
			message: "Error updating user",
			codeHdr: errors.EConflict,
		},
		{
			name:     "update with malformed id",
			method:   http.MethodPut,
			path:     "/users/not-an-id",
			body:     `{"name":"A","email":"a@x.io"}`,
			status:   http.StatusBadRequest,
			message:  "Error updating user",
			codeHdr:  errors.EInvalid,
			noCallTo: true,
		},
		{
			name: "delete not found is a 404",
			svc: func(s *mock.UserService) {
				s.DeleteUserFn = func(context.Context, platform.ID) (*userd.User, error) { return nil, notFound }
			},
			method:  http.MethodDelete,
			path:    "/users/" + testUserID,
			status:  http.StatusNotFound,
			message: "User not found",
			codeHdr: errors.ENotFound,
		},
		{
			name: "delete store failure is a 500",
			svc: func(s *mock.UserService) {
				s.DeleteUserFn = func(context.Context, platform.ID) (*userd.User, error) { return nil, unavailable }
			},
			method:  http.MethodDelete,
			path:    "/users/" + testUserID,
			status:  http.StatusInternalServerError,
			message: "Error deleting user",
			codeHdr: errors.EUnavailable,
		},
		{
			name:     "delete with malformed id",
			method:   http.MethodDelete,
			path:     "/users/123",
			status:   http.StatusInternalServerError,
			message:  "Error deleting user",
			codeHdr:  errors.EInvalid,
			noCallTo: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mock.NewUserService()
			called := false
			svc.CreateUserFn = func(context.Context, userd.UserInput) (*userd.User, error) {
				called = true
				return nil, nil
			}
			svc.UpdateUserFn = func(context.Context, platform.ID, userd.UserInput) (*userd.User, error) {
				called = true
				return nil, nil
			}
			svc.DeleteUserFn = func(context.Context, platform.ID) (*userd.User, error) {
				called = true
				return nil, nil
			}
			if tt.svc != nil {
				tt.svc(svc)
			}

			server := newTestServer(t, svc)
			resp, body := doRequest(t, tt.method, server.URL+tt.path, tt.body)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.JSONEq(t, `{"message":"`+tt.message+`"}`, string(body))
			assert.Equal(t, tt.codeHdr, resp.Header.Get(kithttp.PlatformErrorCodeHeader))
			if tt.noCallTo {
				assert.False(t, called, "service must not be called")
			}
		})
	}
}

func TestUserHandler_UpdatePassesIDAndInput(t *testing.T) {
	var gotID platform.ID
	var gotIn userd.UserInput

	svc := mock.NewUserService()
	svc.UpdateUserFn = func(_ context.Context, id platform.ID, in userd.UserInput) (*userd.User, error) {
		gotID, gotIn = id, in
		return &userd.User{ID: id, Name: in.Name, Email: in.Email}, nil
	}

	server := newTestServer(t, svc)
	resp, body := doRequest(t, http.MethodPut, server.URL+"/users/"+testUserID, `{"name":"A","email":""}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testUserID, gotID.String())
	assert.Equal(t, userd.UserInput{Name: "A", Email: ""}, gotIn)
	assert.JSONEq(t, `{"id":"`+testUserID+`","name":"A","email":""}`, string(body))
}

func TestUserHandler_ValidationThroughService(t *testing.T) {
	server := newTestServer(t, newInmemService(t))

	resp, body := doRequest(t, http.MethodPost, server.URL+"/users", `{"email":"a@x.io"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Error adding user"}`, string(body))
	assert.Equal(t, errors.EInvalid, resp.Header.Get(kithttp.PlatformErrorCodeHeader))

	resp, _ = doRequest(t, http.MethodPut, server.URL+"/users/"+testUserID, `{"name":"A","email":"a@x.io"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserHandler_RejectedBodyStoresNothing(t *testing.T) {
	server := newTestServer(t, newInmemService(t))

	resp, _ := doRequest(t, http.MethodPost, server.URL+"/users", `{"name":"B","email":"b@x.io"}{"name":"C"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doRequest(t, http.MethodGet, server.URL+"/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}
