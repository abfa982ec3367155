package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics handles prometheus collection for the pantry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	monitor  *Monitor

	transitions      *prometheus.CounterVec
	deductions       *prometheus.CounterVec
	classifications  *prometheus.CounterVec
	lookups          *prometheus.CounterVec
	lookupLatency    prometheus.Histogram
	reminders        *prometheus.CounterVec
	remindersWaiting prometheus.Gauge
	recipeRequests   *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry. Every observation
// is mirrored into monitor when it is not nil.
func NewMetrics(monitor *Monitor) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		monitor:  monitor,
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartpantry_item_transitions_total",
				Help: "Inventory item status transitions",
			},
			[]string{"event", "from", "to"},
		),
		deductions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartpantry_deductions_total",
				Help: "Recipe ingredient deductions by outcome",
			},
			[]string{"outcome"},
		),
		classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartpantry_classifications_total",
				Help: "Products classified by inferred type",
			},
			[]string{"type"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartpantry_barcode_lookups_total",
				Help: "Barcode lookups by result",
			},
			[]string{"result"},
		),
		lookupLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smartpantry_barcode_lookup_seconds",
				Help:    "Time taken by barcode lookups",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
			},
		),
		reminders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartpantry_reminders_delivered_total",
				Help: "Reminders delivered to clients",
			},
			[]string{"kind"},
		),
		remindersWaiting: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "smartpantry_reminders_waiting",
				Help: "Due reminders not yet received by any client",
			},
		),
		recipeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartpantry_recipe_requests_total",
				Help: "Recipe generation requests by kind and result",
			},
			[]string{"kind", "result"},
		),
	}

	registry.MustRegister(
		m.transitions,
		m.deductions,
		m.classifications,
		m.lookups,
		m.lookupLatency,
		m.reminders,
		m.remindersWaiting,
		m.recipeRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTransition counts a lifecycle transition
func (m *Metrics) RecordTransition(event, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, from, to).Inc()
	m.mirror("transitions_" + event)
}

// RecordDeduction counts a cook-recipe line by outcome
func (m *Metrics) RecordDeduction(outcome string) {
	if m == nil {
		return
	}
	m.deductions.WithLabelValues(outcome).Inc()
	m.mirror("deductions_" + outcome)
}

// RecordClassification counts an inferred product type
func (m *Metrics) RecordClassification(productType string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(productType).Inc()
	m.mirror("classifications_" + productType)
}

// RecordLookup counts a barcode lookup and its latency in seconds
func (m *Metrics) RecordLookup(result string, seconds float64) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
	m.lookupLatency.Observe(seconds)
	m.mirror("lookups_" + result)
}

// RecordReminder counts a delivered reminder
func (m *Metrics) RecordReminder(kind string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(kind).Inc()
	m.mirror("reminders_" + kind)
}

// RecordWaitingReminders sets the number of due reminders still undelivered
func (m *Metrics) RecordWaitingReminders(n int) {
	if m == nil {
		return
	}
	m.remindersWaiting.Set(float64(n))
	if m.monitor != nil {
		m.monitor.RecordMetric("reminders_waiting", n)
	}
}

// RecordRecipeRequest counts a recipe generation request
func (m *Metrics) RecordRecipeRequest(kind, result string) {
	if m == nil {
		return
	}
	m.recipeRequests.WithLabelValues(kind, result).Inc()
	m.mirror("recipes_" + kind + "_" + result)
}

func (m *Metrics) mirror(name string) {
	if m.monitor != nil {
		m.monitor.Increment(name)
	}
}
