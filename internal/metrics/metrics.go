package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-contactform/pkg/validation"
)

// FormMetrics exposes counters for contact form activity.
type FormMetrics struct {
	submissions      *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	edits            prometheus.Counter
	activeSessions   prometheus.Gauge
}

// NewFormMetrics registers the collectors on reg, or the default registerer
// when reg is nil.
func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contactform",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Submit attempts by outcome",
		}, []string{"channel", "outcome"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contactform",
			Subsystem: "form",
			Name:      "validation_errors_total",
			Help:      "Validation failures by field",
		}, []string{"field"}),
		edits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contactform",
			Subsystem: "form",
			Name:      "field_edits_total",
			Help:      "Single field edits applied to sessions",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "contactform",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Form sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.validationErrors, m.edits, m.activeSessions)
	return m
}

// ObserveSubmit records a submit attempt and, on failure, each failing field.
func (m *FormMetrics) ObserveSubmit(channel string, errs validation.Errors) {
	if m == nil {
		return
	}
	outcome := "submitted"
	if !errs.Empty() {
		outcome = "invalid"
	}
	m.submissions.WithLabelValues(channel, outcome).Inc()
	for _, item := range errs {
		m.validationErrors.WithLabelValues(item.Field).Inc()
	}
}

// ObserveEdit counts a single field edit.
func (m *FormMetrics) ObserveEdit() {
	if m == nil {
		return
	}
	m.edits.Inc()
}

// SetActiveSessions reports the current session count.
func (m *FormMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
