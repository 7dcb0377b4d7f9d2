// Package metrics records request, query and registration timings as
// Prometheus series and serves them on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcomes.
const (
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Recorder owns a private registry so tests can create as many as they like.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry           *prometheus.Registry
	requests           *prometheus.HistogramVec
	queries            *prometheus.HistogramVec
	registrations      *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

// NewRecorder creates a Recorder with all club series registered.
// PRE: none
// POST: Returns a Recorder whose Handler exposes Go runtime and club metrics
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "club",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "club",
			Name:      "db_query_duration_seconds",
			Help:      "Database call latency by statement kind.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, 1},
		}, []string{"kind"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club",
			Name:      "registrations_total",
			Help:      "Registration submissions by outcome.",
		}, []string{"outcome"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club",
			Name:      "validation_failures_total",
			Help:      "Rejected registration fields by field name.",
		}, []string{"field"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requests,
		r.queries,
		r.registrations,
		r.validationFailures,
	)
	return r
}

// ObserveRequest records one served HTTP request under the pattern that
// matched it, so label values stay bounded by the route table.
func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(methodLabel(method), routeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveQuery records one database call.
func (r *Recorder) ObserveQuery(kind string, d time.Duration) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(kind).Observe(d.Seconds())
}

// Registration counts a registration attempt and, for rejected ones, each
// field that failed.
func (r *Recorder) Registration(outcome string, failedFields []string) {
	if r == nil {
		return
	}
	r.registrations.WithLabelValues(outcome).Inc()
	for _, f := range failedFields {
		r.validationFailures.WithLabelValues(f).Inc()
	}
}

// Handler serves the registry in Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// routeLabel drops the method from a ServeMux pattern. The catch-all "/"
// and the empty pattern both mean no route matched.
func routeLabel(pattern string) string {
	path := pattern
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		path = pattern[i+1:]
	}
	switch path {
	case "", "/":
		return "unmatched"
	case "/{$}":
		return "/"
	}
	return path
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	}
	return "other"
}
