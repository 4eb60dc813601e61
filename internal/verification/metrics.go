package verification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registry verification.
type Metrics struct {
	// Attempts by outcome: success, timeout, upstream, bad_status.
	Attempts *prometheus.CounterVec

	// Full Verify latency including backoff waits.
	Duration prometheus.Histogram

	// Verification results by validity.
	Results *prometheus.CounterVec
}

// NewMetrics registers verification metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carriercheck_verification_attempts_total",
			Help: "Registry call attempts by outcome",
		}, []string{"outcome"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carriercheck_verification_duration_seconds",
			Help:    "Duration of carrier verification including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		Results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carriercheck_verification_results_total",
			Help: "Verification results by validity",
		}, []string{"valid"}),
	}
}

func (m *Metrics) observeAttempt(outcome string) {
	if m != nil {
		m.Attempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) observeResult(valid bool, d time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if valid {
		label = "true"
	}
	m.Results.WithLabelValues(label).Inc()
	m.Duration.Observe(d.Seconds())
}
