package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PublishMetrics records fan-out publish and bulk transition outcomes plus
// upstream Post Bridge call counts.
type PublishMetrics struct {
	duration        *prometheus.HistogramVec
	clipsPublished  prometheus.Counter
	clipsFailed     prometheus.Counter
	bulkItemSuccess *prometheus.CounterVec
	bulkItemFailure *prometheus.CounterVec
	upstreamCalls   *prometheus.CounterVec
}

// NewPublishMetrics registers the publish metrics on the provided registerer.
func NewPublishMetrics(reg prometheus.Registerer) *PublishMetrics {
	if reg == nil {
		return &PublishMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "publish_job_duration_seconds",
		Help:    "Duration of publish and bulk jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	clipsPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clips_published_total",
		Help: "Clips flipped to published by the fan-out publisher.",
	})
	clipsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clips_publish_failed_total",
		Help: "Clips that failed on every target account.",
	})
	bulkItemSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_item_success_total",
		Help: "Successful per-item bulk transitions.",
	}, []string{"action"})
	bulkItemFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_item_failure_total",
		Help: "Failed per-item bulk transitions.",
	}, []string{"action"})
	upstreamCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postbridge_calls_total",
		Help: "Outbound Post Bridge calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, clipsPublished, clipsFailed, bulkItemSuccess, bulkItemFailure, upstreamCalls)
	return &PublishMetrics{
		duration:        duration,
		clipsPublished:  clipsPublished,
		clipsFailed:     clipsFailed,
		bulkItemSuccess: bulkItemSuccess,
		bulkItemFailure: bulkItemFailure,
		upstreamCalls:   upstreamCalls,
	}
}

// ObserveDuration records the duration for the named job.
func (p *PublishMetrics) ObserveDuration(job string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncPublished counts a clip published to at least one account.
func (p *PublishMetrics) IncPublished() {
	if p == nil || p.clipsPublished == nil {
		return
	}
	p.clipsPublished.Inc()
}

// IncPublishFailed counts a clip that failed on every account.
func (p *PublishMetrics) IncPublishFailed() {
	if p == nil || p.clipsFailed == nil {
		return
	}
	p.clipsFailed.Inc()
}

// IncBulkItem counts one per-item bulk outcome.
func (p *PublishMetrics) IncBulkItem(action string, success bool) {
	if p == nil {
		return
	}
	if success {
		if p.bulkItemSuccess != nil {
			p.bulkItemSuccess.WithLabelValues(normalizeLabel(action)).Inc()
		}
		return
	}
	if p.bulkItemFailure != nil {
		p.bulkItemFailure.WithLabelValues(normalizeLabel(action)).Inc()
	}
}

// IncUpstreamCall counts one outbound Post Bridge call.
func (p *PublishMetrics) IncUpstreamCall(operation string, success bool) {
	if p == nil || p.upstreamCalls == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.upstreamCalls.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
