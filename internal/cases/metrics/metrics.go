package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the case workflow.
// Tracks state machine moves, refused operations, optimistic-lock retries
// and approval snapshots.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	Refused           *prometheus.CounterVec
	Retries           prometheus.Counter
	Snapshots         *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers metrics on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_transitions_total",
			Help: "Successful state machine transitions",
		}, []string{"machine", "from", "to"}),
		Refused: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_operations_refused_total",
			Help: "Case operations refused, by operation and error code",
		}, []string{"operation", "code"}),
		Retries: f.NewCounter(prometheus.CounterOpts{
			Name: "casedesk_concurrent_modification_retries_total",
			Help: "Case mutations retried after a concurrent modification",
		}),
		Snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_approval_snapshots_total",
			Help: "Approval snapshots created, by type and decision",
		}, []string{"type", "decision"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casedesk_operation_duration_seconds",
			Help:    "Duration of case service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncTransition records a committed state change.
func (m *Metrics) IncTransition(machine, from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(machine, from, to).Inc()
	}
}

// IncRefused records an operation that failed with a coded error.
func (m *Metrics) IncRefused(operation, code string) {
	if m != nil {
		m.Refused.WithLabelValues(operation, code).Inc()
	}
}

func (m *Metrics) IncRetry() {
	if m != nil {
		m.Retries.Inc()
	}
}

func (m *Metrics) IncSnapshot(kind, decision string) {
	if m != nil {
		m.Snapshots.WithLabelValues(kind, decision).Inc()
	}
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
