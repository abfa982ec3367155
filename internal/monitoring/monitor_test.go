package monitoring

import (
	"testing"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	metrics := m.GetMetrics()

	value, exists := metrics["test_metric"]
	if !exists {
		t.Fatalf("Expected 'test_metric' to be present in metrics, but it was not")
	}

	if value != 42 {
		t.Errorf("Expected 'test_metric' to be 42, but got %v", value)
	}

	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_Increment(t *testing.T) {
	m := NewMonitor()
	m.Increment("deductions_deducted")
	m.Increment("deductions_deducted")

	value, exists := m.GetMetric("deductions_deducted")
	if !exists {
		t.Fatalf("Expected 'deductions_deducted' to be present in metrics, but it was not")
	}
	if value != int64(2) {
		t.Errorf("Expected 'deductions_deducted' to be 2, but got %v", value)
	}
}
