package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Verification outcomes by status
	Outcome *prometheus.CounterVec

	// Deficiencies emitted, by type and severity
	Deficiency *prometheus.CounterVec

	// Pure evaluation latency
	VerifyLatency prometheus.Histogram

	// End-to-end document processing latency (extract + evaluate + persist)
	ProcessLatency prometheus.Histogram
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certguard_verification_outcomes_total",
			Help: "Total verification outcomes by status",
		}, []string{"status"}),

		Deficiency: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certguard_verification_deficiencies_total",
			Help: "Total deficiencies emitted by type and severity",
		}, []string{"type", "severity"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certguard_verification_evaluate_duration_seconds",
			Help:    "Duration of pure rule evaluation",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),

		ProcessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certguard_verification_process_duration_seconds",
			Help:    "Duration of full document processing including extraction and persistence",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementOutcome records a verification outcome.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.Outcome.WithLabelValues(status).Inc()
	}
}

// IncrementDeficiency records one emitted deficiency.
func (m *Metrics) IncrementDeficiency(deficiencyType, severity string) {
	if m != nil {
		m.Deficiency.WithLabelValues(deficiencyType, severity).Inc()
	}
}

// ObserveVerifyLatency records the duration of a pure evaluation.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}

// ObserveProcessLatency records the duration of a full processing run.
func (m *Metrics) ObserveProcessLatency(d time.Duration) {
	if m != nil {
		m.ProcessLatency.Observe(d.Seconds())
	}
}
