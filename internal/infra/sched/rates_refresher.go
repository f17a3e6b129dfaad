package sched

import (
	"context"
	"time"

	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// RatesRefresher keeps the exchange-rate cache warm so price rendering
// rarely waits on the rates endpoint.
type RatesRefresher struct {
	interval time.Duration
	base     string
	rates    adapter.RateProvider
	log      *zerolog.Logger
}

func NewRatesRefresher(interval time.Duration, base string, rates adapter.RateProvider, logger *zerolog.Logger) *RatesRefresher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	l := logger.With().Str("component", "RatesRefresher").Logger()
	return &RatesRefresher{interval: interval, base: base, rates: rates, log: &l}
}

// Run refreshes once immediately, then on every tick.
func (w *RatesRefresher) Run(ctx context.Context) error {
	w.log.Info().Str("base", w.base).Dur("interval", w.interval).Msg("Starting rates refresher")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping rates refresher")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RatesRefresher) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	rates, err := w.rates.Rates(runCtx, w.base)
	if err != nil {
		metrics.IncWorkerTask("rates_refresher", "failed")
		w.log.Warn().Err(err).Msg("rates refresh failed")
		return
	}
	metrics.IncWorkerTask("rates_refresher", "ok")
	w.log.Debug().Int("currencies", len(rates)).Msg("rates refreshed")
}
