package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomePublished = "published"
	outcomeDropped   = "dropped"
	outcomeFailed    = "failed"
)

type Metrics struct {
	Events *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "carriercheck_audit_events_total",
			Help: "Audit events by action and delivery outcome",
		}, []string{"action", "outcome"}),
	}
}

func (m *Metrics) observe(action Action, outcome string) {
	if m != nil {
		m.Events.WithLabelValues(string(action), outcome).Inc()
	}
}
