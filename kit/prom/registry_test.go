package prom_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/influxdata/userd/kit/prom"
	"github.com/influxdata/userd/kit/prom/promtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRegistry_HTTPHandler(t *testing.T) {
	reg := prom.NewRegistry(zaptest.NewLogger(t))

	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "test",
		Name:      "requests_total",
		Help:      "test counter",
	}, []string{"route"})
	reg.MustRegister(c)
	c.WithLabelValues("/users").Add(2)

	s := httptest.NewServer(reg.HTTPHandler())
	defer s.Close()

	resp, err := http.Get(s.URL)
	require.NoError(t, err)

	mfs, err := promtest.FromHTTPResponse(resp)
	require.NoError(t, err)

	m := promtest.MustFindMetric(t, mfs, "test_requests_total", map[string]string{"route": "/users"})
	require.Equal(t, float64(2), m.GetCounter().GetValue())

	require.Nil(t, promtest.FindMetric(mfs, "test_requests_total", map[string]string{"route": "/other"}))
}

func TestRegistry_WithRuntimeCollectors(t *testing.T) {
	reg := prom.NewRegistry(zaptest.NewLogger(t)).WithRuntimeCollectors()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	promtest.MustFindMetric(t, mfs, "go_goroutines", map[string]string{})
}
