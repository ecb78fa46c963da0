package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	// Compliance status transitions by previous and new status
	StatusTransition *prometheus.CounterVec

	// Exceptions auto-resolved by compliant certificates
	ExceptionResolved prometheus.Counter

	// Communications dispatched by type
	CommunicationSent *prometheus.CounterVec

	// Communications skipped for lack of a recipient
	CommunicationSkipped prometheus.Counter
}

// New creates a Metrics instance with all compliance metrics registered.
func New() *Metrics {
	return &Metrics{
		StatusTransition: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certguard_compliance_status_transitions_total",
			Help: "Total compliance status transitions by previous and new status",
		}, []string{"from", "to"}),

		ExceptionResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certguard_compliance_exceptions_resolved_total",
			Help: "Total exceptions auto-resolved by compliant certificates",
		}),

		CommunicationSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certguard_compliance_communications_sent_total",
			Help: "Total communications dispatched by type",
		}, []string{"type"}),

		CommunicationSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certguard_compliance_communications_skipped_total",
			Help: "Total communications skipped because no recipient was on file",
		}),
	}
}

// IncrementTransition records one compliance status transition.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.StatusTransition.WithLabelValues(from, to).Inc()
	}
}

// AddExceptionsResolved records auto-resolved exceptions.
func (m *Metrics) AddExceptionsResolved(n int) {
	if m != nil && n > 0 {
		m.ExceptionResolved.Add(float64(n))
	}
}

// IncrementCommunicationSent records one dispatched communication.
func (m *Metrics) IncrementCommunicationSent(commType string) {
	if m != nil {
		m.CommunicationSent.WithLabelValues(commType).Inc()
	}
}

// IncrementCommunicationSkipped records one skipped communication.
func (m *Metrics) IncrementCommunicationSkipped() {
	if m != nil {
		m.CommunicationSkipped.Inc()
	}
}
