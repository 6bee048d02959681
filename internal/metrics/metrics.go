// Package metrics registers the application's Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	BillsCreated    prometheus.Counter
	UploadsRejected prometheus.Counter
	BillListErrors  prometheus.Counter
	BillsExported   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_bills_created_total",
			Help: "Bills successfully submitted.",
		}),
		UploadsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_uploads_rejected_total",
			Help: "Receipt files rejected for their extension.",
		}),
		BillListErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_bill_list_errors_total",
			Help: "Bill list fetches that failed.",
		}),
		BillsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billed_bills_exported_total",
			Help: "Bills written to the export sheet, by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billed_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.BillsCreated,
		m.UploadsRejected,
		m.BillListErrors,
		m.BillsExported,
		m.RequestDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RegisterCounterFunc exposes a counter maintained elsewhere, read at
// scrape time. Registering the same name twice keeps the first.
func (m *Metrics) RegisterCounterFunc(name, help string, fn func() float64) {
	m.register(prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, fn))
}

// RegisterGaugeFunc exposes a gauge read at scrape time.
func (m *Metrics) RegisterGaugeFunc(name, help string, fn func() float64) {
	m.register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

func (m *Metrics) register(c prometheus.Collector) {
	if err := m.registry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			panic(err)
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware observes request latency labelled by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LabelCounter increments a single-label counter vector.
type LabelCounter struct {
	vec *prometheus.CounterVec
}

func (c LabelCounter) Inc(label string) { c.vec.WithLabelValues(label).Inc() }

// ExportOutcomes counts export results by outcome.
func (m *Metrics) ExportOutcomes() LabelCounter {
	return LabelCounter{vec: m.BillsExported}
}
