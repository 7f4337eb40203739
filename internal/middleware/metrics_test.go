package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}
	if m.httpRequestDuration == nil {
		t.Error("httpRequestDuration is nil")
	}
	if m.httpRequestsTotal == nil {
		t.Error("httpRequestsTotal is nil")
	}
}

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	err := m.Register(reg)
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	// Record a request to create metric entries
	m.ObserveHTTPRequest("GET", "/api/members", "200", 0.1, 100, 500)

	// Verify metrics are registered by checking they can be collected
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	foundDuration := false
	foundTotal := false
	for _, mf := range metrics {
		if mf.GetName() == MetricHTTPRequestDuration {
			foundDuration = true
		}
		if mf.GetName() == MetricHTTPRequestsTotal {
			foundTotal = true
		}
	}

	if !foundDuration {
		t.Errorf("metric %s not found in registry", MetricHTTPRequestDuration)
	}
	if !foundTotal {
		t.Errorf("metric %s not found in registry", MetricHTTPRequestsTotal)
	}
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestMetrics_ObserveHTTPRequestCounts(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	m.ObserveHTTPRequest("GET", "/api/members", "200", 0.1, 100, 500)
	m.ObserveHTTPRequest("GET", "/api/members", "200", 0.2, 100, 500)
	m.ObserveHTTPRequest("POST", "/api/admin/management", "201", 0.3, 200, 300)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	var totals *dto.MetricFamily
	for _, mf := range metrics {
		if mf.GetName() == MetricHTTPRequestsTotal {
			totals = mf
		}
	}
	if totals == nil {
		t.Fatalf("metric %s not found in registry", MetricHTTPRequestsTotal)
	}
	if len(totals.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(totals.GetMetric()))
	}
	for _, metric := range totals.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "method" && label.GetValue() == "GET" {
				if got := metric.GetCounter().GetValue(); got != 2 {
					t.Errorf("expected 2 GET requests, got %v", got)
				}
			}
		}
	}
}

func TestMetrics_Collectors(t *testing.T) {
	m := NewMetrics()
	collectors := m.Collectors()
	if len(collectors) != 4 {
		t.Errorf("expected 4 collectors, got %d", len(collectors))
	}
	for i, c := range collectors {
		if c == nil {
			t.Errorf("collector %d is nil", i)
		}
	}
}
