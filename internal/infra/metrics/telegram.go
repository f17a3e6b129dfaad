package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramUpdatesTotal,
		telegramCallbacksTotal,
		telegramRateLimitTriggeredTotal,
		telegramHandlerErrorsTotal,
		telegramSendsTotal,
	)
}

var (
	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Counts incoming updates by kind and command.",
		},
		[]string{"kind", "command"},
	)

	telegramCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_callbacks_total",
			Help: "Callback presses by matched route.",
		},
		[]string{"route"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times chats have been rate-limited.",
		},
	)

	telegramHandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_handler_errors_total",
			Help: "Handler failures converted into the generic error screen.",
		},
		[]string{"kind"},
	)

	telegramSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_sends_total",
			Help: "Outbound Bot API sends by type and result.",
		},
		[]string{"type", "result"},
	)
)

func IncTelegramUpdate(kind, command string) {
	telegramUpdatesTotal.WithLabelValues(norm(kind), norm(command)).Inc()
}

func IncCallback(route string) {
	telegramCallbacksTotal.WithLabelValues(norm(route)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncHandlerError(kind string) {
	telegramHandlerErrorsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncTelegramSend(kind, result string) {
	telegramSendsTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}
