package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Claim outcomes recorded by the claim workflow.
const (
	ClaimClaimed  = "claimed"
	ClaimConflict = "conflict"
	ClaimNotFound = "not_found"
	ClaimError    = "error"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Claims        *prometheus.CounterVec
	ItemsCreated  prometheus.Counter
	Collaborators *prometheus.CounterVec
}

// New registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shareplate",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shareplate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shareplate",
			Name:      "claims_total",
			Help:      "Claim attempts by outcome.",
		}, []string{"outcome"}),
		ItemsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shareplate",
			Name:      "items_created_total",
			Help:      "Donation items created.",
		}),
		Collaborators: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shareplate",
			Name:      "collaborator_calls_total",
			Help:      "Geocoder and notifier calls by result.",
		}, []string{"collaborator", "result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Claims,
		m.ItemsCreated,
		m.Collaborators,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveClaim increments the claim counter; safe on a nil receiver.
func (m *Metrics) ObserveClaim(outcome string) {
	if m == nil {
		return
	}
	m.Claims.WithLabelValues(outcome).Inc()
}

// ObserveItemCreated increments the item counter; safe on a nil receiver.
func (m *Metrics) ObserveItemCreated() {
	if m == nil {
		return
	}
	m.ItemsCreated.Inc()
}

// ObserveCollaborator records a geocoder or notifier result; safe on a nil receiver.
func (m *Metrics) ObserveCollaborator(name, result string) {
	if m == nil {
		return
	}
	m.Collaborators.WithLabelValues(name, result).Inc()
}
