package metric

import (
	"time"

	"github.com/influxdata/userd/kit/platform/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// REDClient is a metrics client for collection RED metrics.
type REDClient struct {
	metrics []metricCollector
}

// New creates a new REDClient.
func New(reg prometheus.Registerer, service string, opts ...ClientOptFn) *REDClient {
	opt := metricOpts{
		namespace: "userd",
		service:   service,
		counterMetrics: map[string]VecOpts{
			"call": {
				Name:       "call_total",
				Help:       "Number of calls",
				LabelNames: []string{"method"},
				CounterFn: func(vec *prometheus.CounterVec, o CollectFnOpts) {
					vec.With(prometheus.Labels{"method": o.Method}).Inc()
				},
			},
			"error": {
				Name:       "error_total",
				Help:       "Number of errors encountered",
				LabelNames: []string{"method", "code"},
				CounterFn: func(vec *prometheus.CounterVec, o CollectFnOpts) {
					if o.Err != nil {
						vec.With(prometheus.Labels{
							"method": o.Method,
							"code":   errors.ErrorCode(o.Err),
						}).Inc()
					}
				},
			},
		},
		histogramMetrics: map[string]VecOpts{
			"duration": {
				Name:       "duration",
				Help:       "Duration of calls",
				LabelNames: []string{"method"},
				HistogramFn: func(vec *prometheus.HistogramVec, o CollectFnOpts) {
					vec.
						With(prometheus.Labels{"method": o.Method}).
						Observe(time.Since(o.Start).Seconds())
				},
			},
		},
	}
	for _, o := range opts {
		o(&opt)
	}

	client := new(REDClient)
	for _, vecOpts := range opt.counterMetrics {
		client.metrics = append(client.metrics, &counter{
			fn: vecOpts.CounterFn,
			CounterVec: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: opt.namespace,
				Subsystem: opt.serviceName(),
				Name:      vecOpts.Name,
				Help:      vecOpts.Help,
			}, vecOpts.LabelNames),
		})
	}

	for _, vecOpts := range opt.histogramMetrics {
		client.metrics = append(client.metrics, &histogram{
			fn: vecOpts.HistogramFn,
			HistogramVec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: opt.namespace,
				Subsystem: opt.serviceName(),
				Name:      vecOpts.Name,
				Help:      vecOpts.Help,
			}, vecOpts.LabelNames),
		})
	}

	reg.MustRegister(client.collectors()...)

	return client
}

// Record returns a record fn that is called on any given return err. If an error is encountered
// it will register the err metric. The err is never altered.
func (c *REDClient) Record(method string) func(error) error {
	start := time.Now()
	return func(err error) error {
		for _, metric := range c.metrics {
			metric.collect(CollectFnOpts{
				Method: method,
				Start:  start,
				Err:    err,
			})
		}

		return err
	}
}

func (c *REDClient) collectors() []prometheus.Collector {
	var collectors []prometheus.Collector
	for _, metric := range c.metrics {
		collectors = append(collectors, metric)
	}
	return collectors
}

type metricCollector interface {
	prometheus.Collector

	collect(o CollectFnOpts)
}

type counter struct {
	*prometheus.CounterVec

	fn CounterFn
}

func (c *counter) collect(o CollectFnOpts) {
	c.fn(c.CounterVec, o)
}

type histogram struct {
	*prometheus.HistogramVec

	fn HistogramFn
}

func (h *histogram) collect(o CollectFnOpts) {
	h.fn(h.HistogramVec, o)
}
