package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConciergeMetrics exposes counters/histograms for the dialog pipeline.
type ConciergeMetrics struct {
	turnsTotal     *prometheus.CounterVec
	fallbacksTotal *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
}

func NewConciergeMetrics(reg prometheus.Registerer) *ConciergeMetrics {
	m := &ConciergeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Guest turns handled, by routing branch and intent",
		}, []string{"branch", "intent"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "recommendation",
			Name:      "fallbacks_total",
			Help:      "Recommendation requests answered by a fallback stage",
		}, []string{"stage"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Time to handle one guest turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"branch"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.fallbacksTotal, m.turnLatency)
	return m
}

// ObserveTurn records one handled turn.
func (m *ConciergeMetrics) ObserveTurn(branch, intent string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(branch, intent).Inc()
	m.turnLatency.WithLabelValues(branch).Observe(elapsed.Seconds())
}

// ObserveRecommendationFallback records a fallback stage being used.
func (m *ConciergeMetrics) ObserveRecommendationFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(stage).Inc()
}

// MessagingMetrics exposes counters for the SMS webhook and sender.
type MessagingMetrics struct {
	inboundTotal  *prometheus.CounterVec
	outboundTotal *prometheus.CounterVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound Twilio webhooks",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound SMS segments",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal)
	return m
}

func (m *MessagingMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *MessagingMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}
