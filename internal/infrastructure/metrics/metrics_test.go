package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWith(registry)

	if m.ReconciliationRuns == nil || m.HTTPRequests == nil || m.DBQueries == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	// Vectors only show up once a label set is used.
	m.ReconciliationReplays.Inc()
	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveRun(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.ObserveRun("clean", 120*time.Millisecond)
	m.ObserveRun("clean", 80*time.Millisecond)
	m.ObserveRun("has_problems", time.Second)

	if got := counterValue(t, m.ReconciliationRuns.WithLabelValues("clean")); got != 2 {
		t.Errorf("expected 2 clean runs, got %v", got)
	}
	if got := counterValue(t, m.ReconciliationRuns.WithLabelValues("has_problems")); got != 1 {
		t.Errorf("expected 1 problem run, got %v", got)
	}
	var h dto.Metric
	if err := m.ReconciliationDuration.Write(&h); err != nil {
		t.Fatalf("failed to read histogram: %v", err)
	}
	if got := h.GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("expected 3 duration samples, got %d", got)
	}
}

func TestObserveRedis(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.ObserveRedis("lock_acquire", time.Millisecond, nil)
	m.ObserveRedis("lock_acquire", time.Millisecond, errors.New("timeout"))

	if got := counterValue(t, m.RedisOperations.WithLabelValues("lock_acquire")); got != 2 {
		t.Errorf("expected 2 operations, got %v", got)
	}
	if got := counterValue(t, m.RedisErrors.WithLabelValues("lock_acquire")); got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
}
