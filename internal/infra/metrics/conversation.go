package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(conversationScreensTotal, conversationExpiredTotal, conversationDeleteFailures, activeChats, droppedEventsTotal)
}

var (
	conversationScreensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_screens_total",
			Help: "Screens rendered through the conversation lifecycle.",
		},
	)

	conversationExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_expired_total",
			Help: "Conversations wiped by the retention timer.",
		},
	)

	conversationDeleteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_delete_failures_total",
			Help: "Message deletions that failed and were ignored.",
		},
	)

	droppedEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_dropped_events_total",
			Help: "Inbound events dropped because the chat's mailbox was full.",
		},
	)

	activeChats = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "conversation_active_chat_actors",
			Help: "Number of live per-chat actors.",
		},
	)
)

func IncScreen()           { conversationScreensTotal.Inc() }
func IncExpired()          { conversationExpiredTotal.Inc() }
func IncDeleteFailure()    { conversationDeleteFailures.Inc() }
func AddActiveChats(d int) { activeChats.Add(float64(d)) }
func IncDroppedEvent()     { droppedEventsTotal.Inc() }
