// Package metrics counts intake lifecycle outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	Created         *prometheus.CounterVec
	Enriched        prometheus.Counter
	PersistFailures *prometheus.CounterVec
	Matches         prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carriercheck_intakes_created_total",
			Help: "Intake results created, by carrier validity",
		}, []string{"mc_valid"}),
		Enriched: f.NewCounter(prometheus.CounterOpts{
			Name: "carriercheck_intakes_enriched_total",
			Help: "Successful enrichments of stored results",
		}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carriercheck_intake_persist_failures_total",
			Help: "Result saves rejected by the store, by operation",
		}, []string{"op"}),
		Matches: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carriercheck_intake_matches",
			Help:    "Number of matched loads returned per intake",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
	}
}

func (m *Metrics) IncCreated(mcValid bool, matches int) {
	if m == nil {
		return
	}
	label := "false"
	if mcValid {
		label = "true"
	}
	m.Created.WithLabelValues(label).Inc()
	m.Matches.Observe(float64(matches))
}

func (m *Metrics) IncEnriched() {
	if m != nil {
		m.Enriched.Inc()
	}
}

func (m *Metrics) IncPersistFailure(op string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(op).Inc()
	}
}
