// Package radiusmetrics registers Prometheus counters and histograms for
// the RADIUS client transaction engine.
package radiusmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radiusgo/goradius/radius"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "goradius"
	subsystem = "client"
)

// Label names for client metrics.
const (
	labelServer = "server"
	labelKind   = "kind"
	labelStatus = "status"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Client Metrics
// -------------------------------------------------------------------------

// Collector holds all client-transaction Prometheus metrics.
//
//   - Attempts counts every SendRequest call that reaches the transport
//     (after server lookup and packet build), labeled by server/kind.
//   - Retries counts every retransmission consumed from the retry budget.
//   - Results counts terminal outcomes, labeled by RADIUS status.
//   - DigestFailures flags a reply that failed authenticator or
//     Message-Authenticator verification.
//   - Latency histograms the time from SendRequest to a terminal outcome,
//     labeled the same as Results.
type Collector struct {
	Attempts       *prometheus.CounterVec
	Retries        *prometheus.CounterVec
	Results        *prometheus.CounterVec
	DigestFailures *prometheus.CounterVec
	Latency        *prometheus.HistogramVec
}

// NewCollector creates a Collector with all client metrics registered
// against the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
//
// All metrics are created with the "goradius_client_" prefix
// (namespace_subsystem) to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Attempts,
		c.Retries,
		c.Results,
		c.DigestFailures,
		c.Latency,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	attemptLabels := []string{labelServer, labelKind}
	resultLabels := []string{labelServer, labelKind, labelStatus}

	return &Collector{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attempts_total",
			Help:      "Total SendRequest calls handed to the transport, before any retry.",
		}, attemptLabels),

		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retries_total",
			Help:      "Total retransmissions consumed from the retry budget.",
		}, attemptLabels),

		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "results_total",
			Help:      "Total terminal transaction outcomes, labeled by status.",
		}, resultLabels),

		DigestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "digest_failures_total",
			Help:      "Total replies discarded for a response-authenticator or Message-Authenticator mismatch.",
		}, attemptLabels),

		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "latency_seconds",
			Help:      "Time from SendRequest to a terminal outcome.",
			Buckets:   prometheus.DefBuckets,
		}, resultLabels),
	}
}

// -------------------------------------------------------------------------
// radius.MetricsRecorder implementation
// -------------------------------------------------------------------------

// ObserveAttempt implements radius.MetricsRecorder.
func (c *Collector) ObserveAttempt(kind radius.Kind, server string) {
	c.Attempts.WithLabelValues(server, kind.String()).Inc()
}

// ObserveRetry implements radius.MetricsRecorder.
func (c *Collector) ObserveRetry(kind radius.Kind, server string) {
	c.Retries.WithLabelValues(server, kind.String()).Inc()
}

// ObserveResult implements radius.MetricsRecorder.
func (c *Collector) ObserveResult(kind radius.Kind, server string, status radius.Status, latency time.Duration) {
	c.Results.WithLabelValues(server, kind.String(), status.String()).Inc()
	c.Latency.WithLabelValues(server, kind.String(), status.String()).Observe(latency.Seconds())
}

// ObserveDigestFailure implements radius.MetricsRecorder.
func (c *Collector) ObserveDigestFailure(kind radius.Kind, server string) {
	c.DigestFailures.WithLabelValues(server, kind.String()).Inc()
}
