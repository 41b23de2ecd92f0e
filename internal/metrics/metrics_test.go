package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.ObserveGeneration("feedback", "ok", 2*time.Second)
	m.ObserveGeneration("feedback", "error", time.Second)
	m.ObserveGeneration("feedback", "ok", time.Second)
	m.ObserveFallback("feedback", "malformed")
	m.ObserveRecord("fallback", 82, 90)

	if got := testutil.ToFloat64(m.generationRequests.WithLabelValues("feedback", "ok")); got != 2 {
		t.Fatalf("expected 2 ok generations, got %v", got)
	}
	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("feedback", "malformed")); got != 1 {
		t.Fatalf("expected 1 fallback, got %v", got)
	}
	if got := testutil.ToFloat64(m.records.WithLabelValues("fallback")); got != 1 {
		t.Fatalf("expected 1 record, got %v", got)
	}
	if got := testutil.CollectAndCount(m.scores); got != 2 {
		t.Fatalf("expected 2 score series, got %d", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.ObserveGeneration("follow_up", "ok", time.Second)
	m.ObserveFallback("follow_up", "empty")
	m.ObserveRecord("model", 1, 2)

	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "metrics.prom")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Registry() != nil {
		t.Fatalf("expected nil registry")
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFallback("follow_up", "unavailable")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}

	if !strings.Contains(string(data), `interview_coach_fallbacks_total{reason="unavailable",step="follow_up"} 1`) {
		t.Fatalf("fallback counter missing from output:\n%s", data)
	}
}
