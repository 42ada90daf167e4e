package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds counters for workflow activity. A nil *Metrics is valid and
// records nothing, so services can be constructed without one in tests.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
}

// New registers the workflow counters on the default registry. Call once per
// process.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landflow_transitions_total",
			Help: "Committed workflow state transitions by workflow and action.",
		}, []string{"workflow", "action"}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landflow_rejections_total",
			Help: "Rejected workflow operations by error kind.",
		}, []string{"kind"}),
	}
}

// IncTransition records one committed transition.
func (m *Metrics) IncTransition(workflow, action string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(workflow, action).Inc()
}

// IncRejection records one rejected operation.
func (m *Metrics) IncRejection(kind string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(kind).Inc()
}
