package transport

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts requests and retries issued by an Executor. A nil *Metrics
// records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Retries  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbc_storage",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "HTTP attempts sent to the Storage API, by method and status code.",
		}, []string{"method", "code"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbc_storage",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Retries scheduled after a retry-eligible status, by method.",
		}, []string{"method"}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Retries)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeRetry(method string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(method).Inc()
}
