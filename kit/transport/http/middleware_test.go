package http

import (
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/influxdata/userd/kit/platform"
	"github.com/influxdata/userd/kit/prom"
	"github.com/influxdata/userd/kit/prom/promtest"
	"github.com/influxdata/userd/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func Test_normalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "1",
			path:     path.Join("/users", platform.ID(2).String()),
			expected: "/users/:id",
		},
		{
			name:     "2",
			path:     "/users",
			expected: "/users",
		},
		{
			name:     "3",
			path:     "/",
			expected: "/",
		},
		{
			name:     "4",
			path:     "/users/not-an-id",
			expected: "/users/not-an-id",
		},
		{
			name:     "5",
			path:     "/users/zzzzzzzzzzzzzzzz",
			expected: "/users/zzzzzzzzzzzzzzzz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := normalizePath(tt.path)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestCors(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nextHandler"))
	})

	tests := []struct {
		name            string
		method          string
		headers         map[string]string
		expectedStatus  int
		expectedHeaders map[string]string
	}{
		{
			name:           "OPTIONS without Origin",
			method:         "OPTIONS",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "OPTIONS with Origin",
			method:         "OPTIONS",
			headers:        map[string]string{"Origin": "http://myapp.com"},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "GET with Origin",
			method:         "GET",
			headers:        map[string]string{"Origin": "http://anotherapp.com"},
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "http://anotherapp.com",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svr := SetCORS(nextHandler)

			req := httptest.NewRequest(tt.method, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			svr.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			for k, v := range tt.expectedHeaders {
				assert.Equal(t, v, w.Header().Get(k))
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prom.NewRegistry(zap.NewNop())
	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "http",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Number of http requests received",
	}, MetricLabels)
	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "http",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Time taken to respond to HTTP request",
	}, MetricLabels)
	reg.MustRegister(reqs, durs)

	status := http.StatusOK
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	h := Metrics("userd", reqs, durs)(next)

	id := platform.ID(7).String()
	req := httptest.NewRequest(http.MethodDelete, "/users/"+id, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.ServeHTTP(httptest.NewRecorder(), req)

	// 4XX responses are not reported
	status = http.StatusNotFound
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/users/"+id, nil))

	mfs := promtest.MustGather(t, reg)
	m := promtest.MustFindMetric(t, mfs, "http_api_requests_total", map[string]string{
		"handler":       "userd",
		"method":        http.MethodDelete,
		"path":          "/users/:id",
		"status":        "2XX",
		"response_code": "200",
		"user_agent":    "Chrome",
	})
	require.Equal(t, float64(1), m.GetCounter().GetValue())
	require.Nil(t, promtest.FindMetric(mfs, "http_api_requests_total", map[string]string{
		"handler":       "userd",
		"method":        http.MethodDelete,
		"path":          "/users/:id",
		"status":        "4XX",
		"response_code": "404",
		"user_agent":    "unknown",
	}))
}

func TestLoggingMW(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	var fromCtx *zap.Logger
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logger.FromContext(r.Context())
		w.Header().Set(PlatformErrorCodeHeader, "conflict")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Error adding user"}`))
	})

	w := httptest.NewRecorder()
	LoggingMW(log)(next).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", nil))

	require.Same(t, log, fromCtx)
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "Request", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/users", fields["path"])
	assert.Equal(t, int64(http.StatusBadRequest), fields["status_code"])
	assert.Equal(t, int64(len(`{"message":"Error adding user"}`)), fields["response_size"])
	assert.Equal(t, "conflict", fields["error"])
}

func TestStatusResponseWriter(t *testing.T) {
	w := NewStatusResponseWriter(httptest.NewRecorder())
	assert.Equal(t, http.StatusOK, w.Code())
	assert.Equal(t, "2XX", w.StatusCodeClass())

	w.WriteHeader(http.StatusServiceUnavailable)
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code())
	assert.Equal(t, "5XX", w.StatusCodeClass())
	assert.Equal(t, 3, w.ResponseBytes())
}
