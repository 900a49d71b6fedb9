package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/influxdata/userd/kit/platform/errors"
	kithttp "github.com/influxdata/userd/kit/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeError(t *testing.T) {
	ctx := context.TODO()

	w := httptest.NewRecorder()

	kithttp.ErrorHandler(0).HandleHTTPError(ctx, nil, w)

	if w.Code != 200 {
		t.Errorf("expected status code 200, got: %d", w.Code)
	}
}

func TestEncodeErrorWithError(t *testing.T) {
	ctx := context.TODO()
	err := &errors.Error{
		Code: errors.EInternal,
		Msg:  "an error occurred",
		Err:  fmt.Errorf("there's an error here, be aware"),
	}

	w := httptest.NewRecorder()

	kithttp.ErrorHandler(0).HandleHTTPError(ctx, err, w)

	if w.Code != 500 {
		t.Errorf("expected status code 500, got: %d", w.Code)
	}

	errHeader := w.Header().Get("X-Platform-Error-Code")
	if errHeader != errors.EInternal {
		t.Errorf("expected X-Platform-Error-Code: %s, got: %s", errors.EInternal, errHeader)
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	if want, got := errors.EInternal, body.Code; want != got {
		t.Errorf("unexpected code -want/+got:\n\t- %q\n\t+ %q", want, got)
	}
	if want, got := "an error occurred: there's an error here, be aware", body.Message; want != got {
		t.Errorf("unexpected message -want/+got:\n\t- %q\n\t+ %q", want, got)
	}
}

func TestEncodeErrorHidesPlainErrors(t *testing.T) {
	w := httptest.NewRecorder()
	kithttp.ErrorHandler(0).HandleHTTPError(context.TODO(), fmt.Errorf("disk on fire"), w)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestErrorCodeToStatusCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{code: errors.EInvalid, want: http.StatusBadRequest},
		{code: errors.ENotFound, want: http.StatusNotFound},
		{code: errors.EConflict, want: http.StatusUnprocessableEntity},
		{code: errors.EUnavailable, want: http.StatusServiceUnavailable},
		{code: errors.EInternal, want: http.StatusInternalServerError},
		{code: "unknown", want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, kithttp.ErrorCodeToStatusCode(context.TODO(), tt.code))
		})
	}
}

func TestAPI_DecodeJSON(t *testing.T) {
	api := kithttp.NewAPI()

	var v struct {
		Name string `json:"name"`
	}
	require.NoError(t, api.DecodeJSON(strings.NewReader(`{"name":"Ann"}`), &v))
	assert.Equal(t, "Ann", v.Name)

	err := api.DecodeJSON(strings.NewReader(`{"name":`), &v)
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	err = api.DecodeJSON(strings.NewReader(``), &v)
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	require.NoError(t, api.DecodeJSON(strings.NewReader("{\"name\":\"Bo\"}\n\t "), &v))
	assert.Equal(t, "Bo", v.Name)

	for _, body := range []string{
		`{"name":"Cy"} not json at all`,
		`{"name":"Cy"}{"name":"Di"}`,
		`{"name":"Cy"} 42`,
		`{"name":"Cy"}]`,
	} {
		err = api.DecodeJSON(strings.NewReader(body), &v)
		assert.Equal(t, errors.EInvalid, errors.ErrorCode(err), body)
	}
}

func TestAPI_Respond(t *testing.T) {
	api := kithttp.NewAPI()

	w := httptest.NewRecorder()
	api.Respond(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	api.Respond(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAPI_Err(t *testing.T) {
	api := kithttp.NewAPI()

	w := httptest.NewRecorder()
	api.Err(w, httptest.NewRequest(http.MethodGet, "/", nil), &errors.Error{
		Code: errors.ENotFound,
		Msg:  "path not found",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ENotFound, w.Header().Get(kithttp.PlatformErrorCodeHeader))
	assert.JSONEq(t, `{"code":"not found","message":"path not found"}`, w.Body.String())
}
