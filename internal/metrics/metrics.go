package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus counters of the credential core.
type Metrics struct {
	OperationsTotal *prometheus.CounterVec
}

// New creates and registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credentials_operations_total",
				Help: "Total number of credential operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}

	reg.MustRegister(m.OperationsTotal)

	return m
}

func (m *Metrics) Observe(operation, outcome string) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}
