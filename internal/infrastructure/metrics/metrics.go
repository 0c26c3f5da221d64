package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "doubtit"
	subsystem = "support_api"
)

var (
	// HTTP
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"route", "method"},
	)

	// Conversation flow
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inbound_messages_total",
			Help:      "Inbound channel messages by routing outcome",
		},
		[]string{"outcome"},
	)

	WebhookDuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_duplicates_total",
			Help:      "Webhook updates dropped as redeliveries",
		},
	)

	AgentActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "agent_actions_total",
			Help:      "Agent actions by result",
		},
		[]string{"action", "result"},
	)

	// Upstreams
	ChannelDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channel_deliveries_total",
			Help:      "Calls made to the messaging channel API",
		},
		[]string{"method", "result"},
	)

	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_requests_total",
			Help:      "Assistant completion requests by result",
		},
		[]string{"result"},
	)

	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_request_duration_seconds",
			Help:      "Assistant completion latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
)

// RecordRequest records a served HTTP request.
func RecordRequest(route, method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(route, method, status).Inc()
	RequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordInbound records how an inbound message was routed.
func RecordInbound(outcome string) {
	InboundMessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordDuplicateUpdate records a dropped webhook redelivery.
func RecordDuplicateUpdate() {
	WebhookDuplicatesTotal.Inc()
}

// RecordAgentAction records an agent action and whether it succeeded.
func RecordAgentAction(action string, err error) {
	AgentActionsTotal.WithLabelValues(action, result(err)).Inc()
}

// RecordChannelCall records one messaging channel API call.
func RecordChannelCall(method string, err error) {
	ChannelDeliveriesTotal.WithLabelValues(method, result(err)).Inc()
}

// RecordLLMRequest records one completion request.
func RecordLLMRequest(duration time.Duration, err error) {
	LLMRequestsTotal.WithLabelValues(result(err)).Inc()
	LLMRequestDuration.Observe(duration.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
