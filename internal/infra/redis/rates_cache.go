package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"telegram-shop-bot/internal/infra/metrics"
)

// RatesCache stores exchange-rate tables keyed by base currency.
type RatesCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewRatesCache(client RedisClient, ttl time.Duration) *RatesCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RatesCache{client: client, ttl: ttl}
}

func ratesKey(base string) string { return "fx_rates:" + strings.ToUpper(base) }

// Get returns the cached table; ok is false on a miss or a corrupt entry.
func (c *RatesCache) Get(ctx context.Context, base string) (map[string]float64, bool, error) {
	val, err := c.client.Get(ctx, ratesKey(base))
	if IsMiss(err) {
		metrics.IncCacheRequest("rates", "miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rates map[string]float64
	if json.Unmarshal([]byte(val), &rates) != nil {
		metrics.IncCacheRequest("rates", "miss")
		return nil, false, nil
	}
	metrics.IncCacheRequest("rates", "hit")
	return rates, true, nil
}

func (c *RatesCache) Set(ctx context.Context, base string, rates map[string]float64) error {
	b, err := json.Marshal(rates)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ratesKey(base), b, c.ttl)
}
