package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FanoutMetrics counts notification deliveries per marketing sink.
type FanoutMetrics struct {
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	skipped   *prometheus.CounterVec
}

// NewFanoutMetrics registers the fanout metrics on the provided registerer.
func NewFanoutMetrics(reg prometheus.Registerer) *FanoutMetrics {
	if reg == nil {
		return &FanoutMetrics{}
	}
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_delivered_total",
		Help: "Marketing events delivered per sink.",
	}, []string{"sink", "event"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_failed_total",
		Help: "Marketing event deliveries that errored per sink.",
	}, []string{"sink", "event"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fanout_skipped_total",
		Help: "Marketing events skipped because the sink is not configured.",
	}, []string{"sink", "event"})
	reg.MustRegister(delivered, failed, skipped)
	return &FanoutMetrics{
		delivered: delivered,
		failed:    failed,
		skipped:   skipped,
	}
}

// IncDelivered counts one successful delivery.
func (f *FanoutMetrics) IncDelivered(sink, event string) {
	if f == nil || f.delivered == nil {
		return
	}
	f.delivered.WithLabelValues(normalizeLabel(sink), normalizeLabel(event)).Inc()
}

// IncFailed counts one failed delivery.
func (f *FanoutMetrics) IncFailed(sink, event string) {
	if f == nil || f.failed == nil {
		return
	}
	f.failed.WithLabelValues(normalizeLabel(sink), normalizeLabel(event)).Inc()
}

// IncSkipped counts one delivery skipped for a missing credential.
func (f *FanoutMetrics) IncSkipped(sink, event string) {
	if f == nil || f.skipped == nil {
		return
	}
	f.skipped.WithLabelValues(normalizeLabel(sink), normalizeLabel(event)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
