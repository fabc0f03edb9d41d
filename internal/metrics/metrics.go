// Package metrics collects counters for one synchronization pass.
//
// The collectors live on a private registry so several sessions (and tests)
// can coexist in one process. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "testsync"

// Metrics holds the collectors for a session.
type Metrics struct {
	Registry *prometheus.Registry

	RowsAppended    prometheus.Counter
	AppendFailures  prometheus.Counter
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Points          prometheus.Gauge
	Completed       prometheus.Gauge
	Unmatched       prometheus.Gauge
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_appended_total",
			Help:      "Scenario rows appended to the record store.",
		}),
		AppendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_append_failures_total",
			Help:      "Scenario rows lost because the append failed.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Requests sent to the test-management service.",
		}, []string{"code", "method"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Latency of requests to the test-management service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Points: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suite_points",
			Help:      "Points listed for the target suite.",
		}),
		Completed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "results_completed",
			Help:      "Points marked Completed in the uploaded payload.",
		}),
		Unmatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unmatched_test_case_ids",
			Help:      "Test case ids from scenarios with no point in the suite.",
		}),
	}

	m.Registry.MustRegister(
		m.RowsAppended,
		m.AppendFailures,
		m.Requests,
		m.RequestDuration,
		m.Points,
		m.Completed,
		m.Unmatched,
	)
	return m
}

// InstrumentRoundTripper wraps next so every request is counted and timed.
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperCounter(m.Requests,
		promhttp.InstrumentRoundTripperDuration(m.RequestDuration, next))
}

// RowAppended records a successful store append.
func (m *Metrics) RowAppended() {
	if m == nil {
		return
	}
	m.RowsAppended.Inc()
}

// RowLost records a failed store append.
func (m *Metrics) RowLost() {
	if m == nil {
		return
	}
	m.AppendFailures.Inc()
}

// ObserveReconcile records the outcome of reconciling rows against points.
func (m *Metrics) ObserveReconcile(points, completed, unmatched int) {
	if m == nil {
		return
	}
	m.Points.Set(float64(points))
	m.Completed.Set(float64(completed))
	m.Unmatched.Set(float64(unmatched))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
