package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects discovery counters. A nil *Metrics records nothing.
type Metrics struct {
	routesBound  *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	passes       prometheus.Counter
	passDuration prometheus.Histogram
}

// NewMetrics registers discovery metrics on reg under the given namespace.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "sylph"
	}
	factory := promauto.With(reg)

	return &Metrics{
		routesBound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_bound_total",
			Help:      "Routes bound to the server, by static or dynamic kind",
		}, []string{"kind"}),

		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_conflicts_total",
			Help:      "Duplicate registrations resolved by last-write-wins",
		}, []string{"kind"}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_failures_total",
			Help:      "Modules skipped during discovery, by error code",
		}, []string{"code"}),

		passes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_passes_total",
			Help:      "Completed discovery passes",
		}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_pass_duration_seconds",
			Help:      "Duration of discovery passes in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) bound(dynamic bool) {
	if m == nil {
		return
	}
	m.routesBound.WithLabelValues(routeKind(dynamic)).Inc()
}

func (m *Metrics) conflict(kind string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(kind).Inc()
}

func (m *Metrics) failure(code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.failures.WithLabelValues(code).Inc()
}

func (m *Metrics) pass(start time.Time) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.passDuration.Observe(time.Since(start).Seconds())
}

func routeKind(dynamic bool) string {
	if dynamic {
		return "dynamic"
	}
	return "static"
}
