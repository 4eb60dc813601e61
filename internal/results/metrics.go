package results

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opSave = "save"
	opGet  = "get"

	outcomeOK          = "ok"
	outcomeMiss        = "miss"
	outcomeError       = "error"
	outcomeUnavailable = "unavailable"
)

// Metrics counts result store operations by outcome.
type Metrics struct {
	Operations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "carriercheck_result_store_operations_total",
			Help: "Result store operations by operation and outcome",
		}, []string{"op", "outcome"}),
	}
}

func (m *Metrics) observe(op, outcome string) {
	if m != nil {
		m.Operations.WithLabelValues(op, outcome).Inc()
	}
}
