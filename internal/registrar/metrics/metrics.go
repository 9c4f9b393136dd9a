package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the authorization engine.
type Metrics struct {
	Registrations    *prometheus.CounterVec
	InviteRejections *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
}

// New creates and registers the engine metrics.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namegate_registrations_total",
			Help: "Names registered, by entry path (invite or direct)",
		}, []string{"method"}),
		InviteRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namegate_invite_rejections_total",
			Help: "Invite consumptions rejected, by pipeline reason",
		}, []string{"reason"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "namegate_invite_pipeline_duration_seconds",
			Help:    "End-to-end latency of invite validation and registration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordRegistration counts one successful registration.
func (m *Metrics) RecordRegistration(method string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(method).Inc()
}

// RecordRejection counts one rejected invite consumption.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.InviteRejections.WithLabelValues(reason).Inc()
}

// ObservePipeline records one invite pipeline run, successful or not.
func (m *Metrics) ObservePipeline(seconds float64) {
	if m == nil {
		return
	}
	m.PipelineDuration.Observe(seconds)
}
