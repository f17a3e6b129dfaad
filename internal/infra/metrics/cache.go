package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, currencyFetchTotal) }

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Tracks cache hits and misses for various caches.",
		},
		[]string{"cache", "result"}, // e.g., cache="rates", result="hit"
	)

	currencyFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "currency_fetch_total",
			Help: "Upstream exchange-rate fetches by result.",
		},
		[]string{"result"}, // 'ok', 'error'
	)
)

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncCurrencyFetch(result string) {
	currencyFetchTotal.WithLabelValues(norm(result)).Inc()
}
