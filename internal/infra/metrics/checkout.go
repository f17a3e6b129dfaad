package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(checkoutStageTotal, ordersTotal, orderValueMinor) }

var (
	checkoutStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_stage_total",
			Help: "Checkout transitions by stage.",
		},
		[]string{"stage"}, // start, delivery, info, payment, completed
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Orders by creation result.",
		},
		[]string{"result"}, // created, duplicate
	)

	orderValueMinor = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_value_minor",
			Help:    "Order totals in minor currency units.",
			Buckets: []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		},
	)
)

func IncCheckoutStage(stage string) {
	checkoutStageTotal.WithLabelValues(norm(stage)).Inc()
}

func ObserveOrder(result string, totalMinor int64) {
	ordersTotal.WithLabelValues(norm(result)).Inc()
	if result == "created" {
		orderValueMinor.Observe(float64(totalMinor))
	}
}
