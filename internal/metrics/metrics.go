package metrics

import "github.com/prometheus/client_golang/prometheus"

var Classifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "nightdesk",
		Subsystem: "triage",
		Name:      "classifications_total",
		Help:      "Caller utterances classified, by urgency tier",
	},
	[]string{"tier"},
)

var IntakeSteps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "nightdesk",
		Subsystem: "intake",
		Name:      "steps_total",
		Help:      "Emergency intake transitions, by step reached",
	},
	[]string{"step"},
)

var Notifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "nightdesk",
		Subsystem: "notify",
		Name:      "notifications_total",
		Help:      "Notification attempts by channel and outcome",
	},
	[]string{"channel", "outcome"}, // outcome: sent, failed, duplicate
)

var ProviderLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "nightdesk",
		Subsystem: "notify",
		Name:      "provider_latency_seconds",
		Help:      "Latency of SMS and email provider calls",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
	},
	[]string{"provider", "status"},
)

var WebhookFallbacks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "nightdesk",
		Subsystem: "webhook",
		Name:      "fallbacks_total",
		Help:      "Webhook turns answered with the stateless fallback",
	},
	[]string{"reason"},
)

func init() {
	prometheus.MustRegister(Classifications)
	prometheus.MustRegister(IntakeSteps)
	prometheus.MustRegister(Notifications)
	prometheus.MustRegister(ProviderLatency)
	prometheus.MustRegister(WebhookFallbacks)
}
