package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/influxdata/userd/kit/platform/errors"
)

// PlatformErrorCodeHeader shows the error code of platform error.
const PlatformErrorCodeHeader = "X-Platform-Error-Code"

// ErrorHandler is the error handler in http package.
type ErrorHandler int

// HandleHTTPError encodes err with the appropriate status code and format,
// sets the X-Platform-Error-Code headers on the response
// and sets the response status to the corresponding status code.
func (h ErrorHandler) HandleHTTPError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		return
	}

	code := errors.ErrorCode(err)
	w.Header().Set(PlatformErrorCodeHeader, code)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(ErrorCodeToStatusCode(ctx, code))
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	e.Code = code
	if err, ok := err.(*errors.Error); ok {
		e.Message = err.Error()
	} else {
		e.Message = "An internal error has occurred"
	}
	b, _ := json.Marshal(e)
	_, _ = w.Write(b)
}

// ErrorCodeToStatusCode maps a platform error code string to a
// corresponding HTTP status code. Unknown codes are reported as 500.
func ErrorCodeToStatusCode(ctx context.Context, code string) int {
	status, ok := statusCodePlatformError[code]
	if !ok {
		return http.StatusInternalServerError
	}
	return status
}

// statusCodePlatformError is the map convert platform.Error to error
var statusCodePlatformError = map[string]int{
	errors.EInternal:         http.StatusInternalServerError,
	errors.EInvalid:          http.StatusBadRequest,
	errors.EConflict:         http.StatusUnprocessableEntity,
	errors.ENotFound:         http.StatusNotFound,
	errors.EUnavailable:      http.StatusServiceUnavailable,
	errors.EMethodNotAllowed: http.StatusMethodNotAllowed,
	errors.ETooLarge:         http.StatusRequestEntityTooLarge,
}
