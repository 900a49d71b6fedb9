package http

import (
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi"
	"github.com/influxdata/userd/kit/prom"
	kithttp "github.com/influxdata/userd/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// MetricsPath exposes the prometheus metrics over /metrics.
	MetricsPath = "/metrics"
	// ReadyPath exposes the readiness of the service over /ready.
	ReadyPath = "/ready"
	// HealthPath exposes the health of the service over /health.
	HealthPath = "/health"
)

// Handler provides basic handling of metrics, health and readiness
// endpoints. All other requests are passed down to the API handler.
type Handler struct {
	name string
	r    chi.Router

	requests   *prometheus.CounterVec
	requestDur *prometheus.HistogramVec

	log *zap.Logger
}

type (
	handlerOpts struct {
		log            *zap.Logger
		apiHandler     http.Handler
		healthHandler  http.Handler
		metricsHandler http.Handler
		readyHandler   http.Handler
	}

	// HandlerOptFn is a functional option for the root Handler.
	HandlerOptFn func(opts *handlerOpts)
)

// WithLog sets the logger for the handler and its access log.
func WithLog(l *zap.Logger) HandlerOptFn {
	return func(opts *handlerOpts) {
		opts.log = l
	}
}

// WithAPIHandler sets the handler for every path not served by the
// operational endpoints.
func WithAPIHandler(h http.Handler) HandlerOptFn {
	return func(opts *handlerOpts) {
		opts.apiHandler = h
	}
}

// NewHandlerFromRegistry creates a new handler with the given name,
// and sets the /metrics endpoint to use the metrics from the given registry,
// after self-registering h's metrics.
func NewHandlerFromRegistry(name string, reg *prom.Registry, opts ...HandlerOptFn) *Handler {
	opt := handlerOpts{
		log:            zap.NewNop(),
		healthHandler:  http.HandlerFunc(HealthHandler),
		metricsHandler: reg.HTTPHandler(),
		readyHandler:   ReadyHandler(clock.New()),
		apiHandler:     http.NotFoundHandler(),
	}
	for _, o := range opts {
		o(&opt)
	}

	h := &Handler{
		name: name,
		log:  opt.log,
	}
	h.initMetrics()

	r := chi.NewRouter()
	r.Use(
		kithttp.Trace(name),
		kithttp.Metrics(name, h.requests, h.requestDur),
		kithttp.LoggingMW(opt.log),
		kithttp.SetCORS,
	)

	r.Mount(MetricsPath, opt.metricsHandler)
	r.Mount(ReadyPath, opt.readyHandler)
	r.Mount(HealthPath, opt.healthHandler)
	r.Mount("/", opt.apiHandler)

	h.r = r

	reg.MustRegister(h.PrometheusCollectors()...)
	return h
}

// ServeHTTP delegates a request to the appropriate subhandler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.r.ServeHTTP(w, r)
}

// PrometheusCollectors satisfies prom.PrometheusCollector.
func (h *Handler) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		h.requests,
		h.requestDur,
	}
}

func (h *Handler) initMetrics() {
	const namespace = "http"
	const handlerSubsystem = "api"

	h.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: handlerSubsystem,
		Name:      "requests_total",
		Help:      "Number of http requests received",
	}, kithttp.MetricLabels)

	h.requestDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: handlerSubsystem,
		Name:      "request_duration_seconds",
		Help:      "Time taken to respond to HTTP request",
	}, kithttp.MetricLabels)
}
