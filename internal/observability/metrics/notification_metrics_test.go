package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNotificationMetricsCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newNotificationMetrics(registry, Config{ServiceName: "scanprice", Environment: "test"})

	m.ObserveReconcile(TriggerTimer, 2*time.Millisecond)
	m.ObserveReconcile(TriggerTimer, time.Millisecond)
	m.IncCreated("low_stock")
	m.IncRetracted("low_stock", "cleared")
	m.SetActive("low_stock", 4)

	if got := testutil.ToFloat64(m.runs.WithLabelValues(TriggerTimer)); got != 2 {
		t.Fatalf("expected 2 runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.active.WithLabelValues("low_stock")); got != 4 {
		t.Fatalf("expected gauge 4, got %v", got)
	}
	if got := testutil.ToFloat64(m.retracted.WithLabelValues("low_stock", "cleared")); got != 1 {
		t.Fatalf("expected 1 retraction, got %v", got)
	}
}
