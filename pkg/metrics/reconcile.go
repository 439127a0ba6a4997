package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records webhook reconciliation activity.
type ReconcileMetrics struct {
	outcomes   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	queueDrops prometheus.Counter
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_events_total",
		Help: "Payment events processed, labeled by engine outcome.",
	}, []string{"event_type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_duration_seconds",
		Help:    "Duration of one reconciliation pass in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	queueDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_queue_drops_total",
		Help: "Verified events that could not be enqueued for reconciliation.",
	})
	reg.MustRegister(outcomes, duration, queueDrops)
	return &ReconcileMetrics{
		outcomes:   outcomes,
		duration:   duration,
		queueDrops: queueDrops,
	}
}

// IncOutcome increments the counter for the given event type and outcome.
func (m *ReconcileMetrics) IncOutcome(eventType, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the duration of one reconciliation pass.
func (m *ReconcileMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncQueueDrop counts an event lost at the handoff boundary.
func (m *ReconcileMetrics) IncQueueDrop() {
	if m == nil || m.queueDrops == nil {
		return
	}
	m.queueDrops.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
