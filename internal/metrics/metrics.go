// Package metrics holds the Prometheus collectors exported on /metrics.
//
// All recording methods are safe to call on a nil *Metrics, so components
// can be constructed without metrics in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "mcpbridge"

// Metrics groups the bridge's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	transportConnects *prometheus.CounterVec
	registrySize      *prometheus.GaugeVec
	bootstraps        prometheus.Counter
	mutationOutcomes  *prometheus.CounterVec
	verifyAttempts    prometheus.Histogram
	runDuration       *prometheus.HistogramVec
	toolCalls         *prometheus.CounterVec
	rejectedEntries   *prometheus.GaugeVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		transportConnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_connect_total",
			Help:      "Transport connect attempts by kind and resulting status.",
		}, []string{"kind", "status"}),
		registrySize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_transports",
			Help:      "Transports in the current registry snapshot by status.",
		}, []string{"status"}),
		bootstraps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_total",
			Help:      "Completed bootstrap runs.",
		}),
		mutationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutation_outcomes_total",
			Help:      "Verified write outcomes by terminal stage.",
		}, []string{"stage"}),
		verifyAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verify_attempts",
			Help:      "Read-back attempts needed per verified write.",
			Buckets:   []float64{1, 2, 3, 5, 8},
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Reasoning engine run duration.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"result"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Local tool calls dispatched to connected transports.",
		}, []string{"server", "result"}),
		rejectedEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_rejected_entries",
			Help:      "Transport list entries rejected by the last bootstrap, by source variable.",
		}, []string{"source"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transportConnects,
		m.registrySize,
		m.bootstraps,
		m.mutationOutcomes,
		m.verifyAttempts,
		m.runDuration,
		m.toolCalls,
		m.rejectedEntries,
	)
	return m
}

// RecordConnect counts one connect attempt.
func (m *Metrics) RecordConnect(kind, status string) {
	if m == nil {
		return
	}
	m.transportConnects.WithLabelValues(kind, status).Inc()
}

// RecordBootstrap records a finished bootstrap and the resulting registry size.
func (m *Metrics) RecordBootstrap(connected, failed int) {
	if m == nil {
		return
	}
	m.bootstraps.Inc()
	m.registrySize.WithLabelValues("connected").Set(float64(connected))
	m.registrySize.WithLabelValues("failed").Set(float64(failed))
}

// RecordMutation counts a verified write by terminal stage.
func (m *Metrics) RecordMutation(stage string, verifyAttempts int) {
	if m == nil {
		return
	}
	m.mutationOutcomes.WithLabelValues(stage).Inc()
	if verifyAttempts > 0 {
		m.verifyAttempts.Observe(float64(verifyAttempts))
	}
}

// RecordRun observes one reasoning engine run.
func (m *Metrics) RecordRun(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordToolCall counts a tool call dispatched to server.
func (m *Metrics) RecordToolCall(server string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.toolCalls.WithLabelValues(server, result).Inc()
}

// RecordRejectedEntries sets the number of rejected entries of source.
func (m *Metrics) RecordRejectedEntries(source string, n int) {
	if m == nil {
		return
	}
	m.rejectedEntries.WithLabelValues(source).Set(float64(n))
}
