package radiusmetrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	radiusmetrics "github.com/radiusgo/goradius/internal/metrics"
	"github.com/radiusgo/goradius/radius"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiusmetrics.NewCollector(reg)

	if c.Attempts == nil {
		t.Error("Attempts is nil")
	}
	if c.Retries == nil {
		t.Error("Retries is nil")
	}
	if c.Results == nil {
		t.Error("Results is nil")
	}
	if c.DigestFailures == nil {
		t.Error("DigestFailures is nil")
	}
	if c.Latency == nil {
		t.Error("Latency is nil")
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestObserveAttemptAndRetry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiusmetrics.NewCollector(reg)

	c.ObserveAttempt(radius.KindAuth, "primary")
	c.ObserveAttempt(radius.KindAuth, "primary")
	c.ObserveRetry(radius.KindAuth, "primary")

	if got := counterValue(t, c.Attempts, "primary", "auth"); got != 2 {
		t.Errorf("Attempts = %v, want 2", got)
	}
	if got := counterValue(t, c.Retries, "primary", "auth"); got != 1 {
		t.Errorf("Retries = %v, want 1", got)
	}
}

func TestObserveResult(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiusmetrics.NewCollector(reg)

	c.ObserveResult(radius.KindAcct, "secondary", radius.StatusOK, 15*time.Millisecond)
	c.ObserveResult(radius.KindAcct, "secondary", radius.StatusOK, 25*time.Millisecond)

	if got := counterValue(t, c.Results, "secondary", "acct", "OK"); got != 2 {
		t.Errorf("Results = %v, want 2", got)
	}

	m := &dto.Metric{}
	hist, err := c.Latency.GetMetricWithLabelValues("secondary", "acct", "OK")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if err := hist.(prometheus.Histogram).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("Latency sample count = %v, want 2", got)
	}
}

func TestObserveDigestFailure(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiusmetrics.NewCollector(reg)

	c.ObserveDigestFailure(radius.KindAuth, "primary")

	if got := counterValue(t, c.DigestFailures, "primary", "auth"); got != 1 {
		t.Errorf("DigestFailures = %v, want 1", got)
	}
}

// counterValue reads the current value of a CounterVec with the given labels.
func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}
