// Package prom provides a wrapper around a prometheus metrics registry
// so that all services are unified in how they expose prometheus metrics.
package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Registry embeds a prometheus registry and adds a few extra features.
type Registry struct {
	// Embed a prometheus registry.
	*prometheus.Registry

	log *zap.Logger
}

// NewRegistry returns a new registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		Registry: prometheus.NewRegistry(),
		log:      log,
	}
}

// WithRuntimeCollectors registers the go runtime and process collectors.
func (r *Registry) WithRuntimeCollectors() *Registry {
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// HTTPHandler returns an http.Handler for the registry,
// so that the /metrics HTTP handler is uniformly configured across all apps in the platform.
func (r *Registry) HTTPHandler() http.Handler {
	opts := promhttp.HandlerOpts{
		ErrorLog:      promLogger{r: r},
		ErrorHandling: promhttp.ContinueOnError,
	}
	return promhttp.HandlerFor(r.Registry, opts)
}

// promLogger satisfies the promhttp.Logger interface with the registry.
type promLogger struct {
	r *Registry
}

var _ promhttp.Logger = (*promLogger)(nil)

// Println implements promhttp.Logger.
func (pl promLogger) Println(v ...interface{}) {
	pl.r.log.Sugar().Info(v...)
}
