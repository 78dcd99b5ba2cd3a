package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fieldservice"

// Metrics groups the service's prometheus collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	durations      *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	cascadeFailure *prometheus.CounterVec
	calendarSync   *prometheus.CounterVec
	registry       *prometheus.Registry
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests labeled by route, method and status",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP error responses labeled by domain error code",
		}, []string{"route", "method", "code"}),
		cascadeFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "step_failures_total",
			Help:      "Dependent-record deletions that failed during a cascade",
		}, []string{"entity", "step"}),
		calendarSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "sync_total",
			Help:      "Calendar mirror attempts for scheduled tickets",
		}, []string{"result"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.requests,
		m.durations,
		m.errors,
		m.cascadeFailure,
		m.calendarSync,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordCascadeFailure counts a failed cascade step.
func (m *Metrics) RecordCascadeFailure(entity, step string) {
	if m == nil {
		return
	}
	m.cascadeFailure.WithLabelValues(entity, step).Inc()
}

// RecordCalendarSync counts a calendar mirror outcome ("ok", "failed", "skipped").
func (m *Metrics) RecordCalendarSync(result string) {
	if m == nil {
		return
	}
	m.calendarSync.WithLabelValues(result).Inc()
}
