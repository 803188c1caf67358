package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts job polls and terminal outcomes. A nil *Metrics records
// nothing.
type Metrics struct {
	Polls    prometheus.Counter
	Outcomes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kbc_storage",
			Subsystem: "jobs",
			Name:      "polls_total",
			Help:      "Job detail fetches issued while waiting for completion.",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbc_storage",
			Subsystem: "jobs",
			Name:      "outcomes_total",
			Help:      "Waits that ended, by result (success, error, timeout, failed).",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.Polls, m.Outcomes)
	}
	return m
}

func (m *Metrics) observePoll() {
	if m == nil {
		return
	}
	m.Polls.Inc()
}

func (m *Metrics) observeOutcome(result string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(result).Inc()
}
