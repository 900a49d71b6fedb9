package launcher_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/cmd/userd/launcher"
	"github.com/influxdata/userd/kit/prom/promtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunOrFail starts a launcher on a random local port and registers its
// shutdown with t.
func RunOrFail(t *testing.T, args ...string) *launcher.Launcher {
	t.Helper()

	l := launcher.NewLauncher()
	l.Stdout = io.Discard
	l.Stderr = io.Discard

	args = append([]string{"--http-bind-address", "127.0.0.1:0", "--log-level", "error"}, args...)
	require.NoError(t, l.Run(context.Background(), args...))
	require.True(t, l.Running())

	t.Cleanup(func() {
		ShutdownOrFail(t, l)
	})
	return l
}

// ShutdownOrFail stops l and fails t if any service does not stop cleanly.
func ShutdownOrFail(t *testing.T, l *launcher.Launcher) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, l.Shutdown(ctx))
}

func do(t *testing.T, method, url, body string) (*nethttp.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req, err := nethttp.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "ua1")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestLauncher_UserLifecycle(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{
			name: "memory",
			args: func(*testing.T) []string {
				return []string{"--store", launcher.MemoryStore}
			},
		},
		{
			name: "bolt",
			args: func(t *testing.T) []string {
				return []string{"--store", launcher.BoltStore, "--bolt-path", filepath.Join(t.TempDir(), "userd.bolt")}
			},
		},
		{
			name: "sqlite",
			args: func(t *testing.T) []string {
				return []string{"--store", launcher.SqliteStore, "--sqlite-path", filepath.Join(t.TempDir(), "userd.sqlite")}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := RunOrFail(t, tt.args(t)...)
			base := l.URL() + "/users"

			resp, body := do(t, nethttp.MethodGet, base, "")
			require.Equal(t, nethttp.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `[]`, string(body))

			resp, body = do(t, nethttp.MethodPost, base, `{"name":"Ann","email":"ann@x.com"}`)
			require.Equal(t, nethttp.StatusCreated, resp.StatusCode, string(body))
			var ann userd.User
			require.NoError(t, json.Unmarshal(body, &ann))
			require.True(t, ann.ID.Valid())
			assert.Equal(t, "Ann", ann.Name)

			resp, body = do(t, nethttp.MethodPost, base, `{"name":"Other","email":"ann@x.com"}`)
			assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `{"message":"Error adding user"}`, string(body))

			resp, body = do(t, nethttp.MethodPut, base+"/"+ann.ID.String(), `{"name":"Annie","email":"annie@x.com"}`)
			require.Equal(t, nethttp.StatusOK, resp.StatusCode)
			var annie userd.User
			require.NoError(t, json.Unmarshal(body, &annie))
			assert.Equal(t, userd.User{ID: ann.ID, Name: "Annie", Email: "annie@x.com"}, annie)

			resp, body = do(t, nethttp.MethodGet, base, "")
			require.Equal(t, nethttp.StatusOK, resp.StatusCode)
			var all []userd.User
			require.NoError(t, json.Unmarshal(body, &all))
			assert.Equal(t, []userd.User{annie}, all)

			resp, body = do(t, nethttp.MethodDelete, base+"/"+ann.ID.String(), "")
			require.Equal(t, nethttp.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"message":"User deleted successfully"}`, string(body))

			resp, body = do(t, nethttp.MethodDelete, base+"/"+ann.ID.String(), "")
			assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
			assert.JSONEq(t, `{"message":"User not found"}`, string(body))
		})
	}
}

func TestLauncher_BoltSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "userd.bolt")

	l := launcher.NewLauncher()
	l.Stdout = io.Discard
	require.NoError(t, l.Run(context.Background(), "--http-bind-address", "127.0.0.1:0", "--log-level", "error", "--bolt-path", path))

	resp, body := do(t, nethttp.MethodPost, l.URL()+"/users", `{"name":"Ann","email":"ann@x.com"}`)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, string(body))
	var ann userd.User
	require.NoError(t, json.Unmarshal(body, &ann))
	ShutdownOrFail(t, l)

	l = RunOrFail(t, "--bolt-path", path)
	resp, body = do(t, nethttp.MethodGet, l.URL()+"/users", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var all []userd.User
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Equal(t, []userd.User{ann}, all)
}

func TestLauncher_OperationalEndpoints(t *testing.T) {
	l := RunOrFail(t, "--store", launcher.MemoryStore)

	resp, body := do(t, nethttp.MethodGet, l.URL()+"/health", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"name":"userd","status":"pass"}`, string(body))

	resp, _ = do(t, nethttp.MethodGet, l.URL()+"/ready", "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, _ = do(t, nethttp.MethodGet, l.URL()+"/users", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, err := nethttp.Get(l.URL() + "/metrics")
	require.NoError(t, err)
	mfs, err := promtest.FromHTTPResponse(resp)
	require.NoError(t, err)

	promtest.MustFindMetric(t, mfs, "userd_user_call_total", map[string]string{"method": "find_users"})
	promtest.MustFindMetric(t, mfs, "go_goroutines", nil)
}

func TestLauncher_RejectsUnknownStore(t *testing.T) {
	l := launcher.NewLauncher()
	l.Stdout = io.Discard

	err := l.Run(context.Background(), "--http-bind-address", "127.0.0.1:0", "--store", "etcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store type etcd")
}
