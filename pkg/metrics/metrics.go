// Package metrics provides Prometheus instrumentation for the request
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the Prometheus metrics for one client instance.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Request pipeline metrics.
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateGateWait    prometheus.Histogram
	loginsTotal     prometheus.Counter
	reauthRetries   prometheus.Counter
	emptyResponses  prometheus.Counter
	transportErrors *prometheus.CounterVec

	// Replay ingestion metrics.
	replayParses *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Registry returns the registry backing the global manager, for exposing
// a /metrics endpoint.
func Registry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "riff",
		subsystem:        "client",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.requestsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_total",
		Help:      "Total number of requests issued, by method and status class",
	}, []string{"method", "status_class"})

	m.requestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of request round-trip time in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"method"})

	m.rateGateWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_gate_wait_seconds",
		Help:      "Histogram of time spent waiting out the request cooldown",
		Buckets:   m.histogramBuckets,
	})

	m.loginsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "logins_total",
		Help:      "Total number of login requests performed",
	})

	m.reauthRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reauth_retries_total",
		Help:      "Total number of requests replayed after re-authentication",
	})

	m.emptyResponses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "empty_responses_total",
		Help:      "Total number of empty response bodies received",
	})

	m.transportErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "transport_errors_total",
		Help:      "Total number of transport-level failures, by kind",
	}, []string{"kind"})

	m.replayParses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_parses_total",
		Help:      "Total number of replay parse attempts, by outcome",
	}, []string{"outcome"})
}

// RecordRequest counts one issued request.
func RecordRequest(method, statusClass string) {
	if !globalManager.enabled {
		return
	}
	globalManager.requestsTotal.WithLabelValues(method, statusClass).Inc()
}

// RecordRequestDuration records round-trip time in seconds.
func RecordRequestDuration(method string, seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.requestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordRateGateWait records time spent waiting for the cooldown.
func RecordRateGateWait(seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.rateGateWait.Observe(seconds)
}

// RecordLogin counts one login request.
func RecordLogin() {
	if !globalManager.enabled {
		return
	}
	globalManager.loginsTotal.Inc()
}

// RecordReauthRetry counts one request replayed after re-authentication.
func RecordReauthRetry() {
	if !globalManager.enabled {
		return
	}
	globalManager.reauthRetries.Inc()
}

// RecordEmptyResponse counts one empty response body.
func RecordEmptyResponse() {
	if !globalManager.enabled {
		return
	}
	globalManager.emptyResponses.Inc()
}

// RecordTransportError counts one transport failure of the given kind
// ("timeout" or "network").
func RecordTransportError(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.transportErrors.WithLabelValues(kind).Inc()
}

// RecordReplayParse counts one replay parse attempt with the given outcome
// ("ok", "absent" or "invalid").
func RecordReplayParse(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.replayParses.WithLabelValues(outcome).Inc()
}
