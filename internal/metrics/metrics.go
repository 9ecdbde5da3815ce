package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of a wizard process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Backend call metrics
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec

	// Navigation metrics
	PhasesLoaded    *prometheus.CounterVec
	OptionsSelected prometheus.Counter
	AutoAdvances    *prometheus.CounterVec

	// Result metrics
	Evaluations   *prometheus.CounterVec
	SessionsSaved *prometheus.CounterVec
	Exports       *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		BackendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackwizard_backend_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"endpoint", "status"},
		),
		BackendLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackwizard_backend_latency_seconds",
				Help:    "Backend API request latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint"},
		),
		PhasesLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackwizard_phases_loaded_total",
				Help: "Total number of question pages loaded",
			},
			[]string{"mode", "success"},
		),
		OptionsSelected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stackwizard_options_selected_total",
				Help: "Total number of option selections, re-selections included",
			},
		),
		AutoAdvances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackwizard_auto_advances_total",
				Help: "Deferred navigations after a selection, by outcome",
			},
			[]string{"outcome"},
		),
		Evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackwizard_evaluations_total",
				Help: "Total number of answer submissions",
			},
			[]string{"success"},
		),
		SessionsSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackwizard_sessions_saved_total",
				Help: "Total number of session records sent to the backend",
			},
			[]string{"success"},
		),
		Exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackwizard_exports_total",
				Help: "Total number of recommendation exports",
			},
			[]string{"format", "success"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackwizard_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// ObserveRequest records one backend call
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.BackendRequests.WithLabelValues(endpoint, label).Inc()
	m.BackendLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// PhaseLoaded records a question page load
func (m *Metrics) PhaseLoaded(mode string, ok bool) {
	if m == nil {
		return
	}
	m.PhasesLoaded.WithLabelValues(mode, strconv.FormatBool(ok)).Inc()
}

// OptionSelected records a selection
func (m *Metrics) OptionSelected() {
	if m == nil {
		return
	}
	m.OptionsSelected.Inc()
}

// AutoAdvance records the outcome of a deferred navigation:
// "fired", "cancelled" or "skipped".
func (m *Metrics) AutoAdvance(outcome string) {
	if m == nil {
		return
	}
	m.AutoAdvances.WithLabelValues(outcome).Inc()
}

// Evaluated records an /evaluate round trip
func (m *Metrics) Evaluated(ok bool) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

// SessionSaved records a /save-session round trip
func (m *Metrics) SessionSaved(ok bool) {
	if m == nil {
		return
	}
	m.SessionsSaved.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

// Exported records an export attempt
func (m *Metrics) Exported(format string, ok bool) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format, strconv.FormatBool(ok)).Inc()
}

// Error records an error code
func (m *Metrics) Error(code string) {
	if m == nil || code == "" {
		return
	}
	m.Errors.WithLabelValues(code).Inc()
}
