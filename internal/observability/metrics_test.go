package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	m.ScenesStored.Inc()
	m.ScenesStored.Inc()
	m.ScenesDropped.WithLabelValues("decode").Inc()
	m.RunActive.Set(1)

	if got := testutil.ToFloat64(m.ScenesStored); got != 2 {
		t.Errorf("scenes_stored_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ScenesDropped.WithLabelValues("decode")); got != 1 {
		t.Errorf("scenes_dropped_total{reason=decode} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RunActive); got != 1 {
		t.Errorf("run_active = %v, want 1", got)
	}
}

func TestMetricsDoubleRegisterFails(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Error("second Register succeeded")
	}
}
