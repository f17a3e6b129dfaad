package sched

import (
	"context"
	"time"

	"telegram-shop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// DraftPurger is satisfied by usecase.CheckoutUseCase.
type DraftPurger interface {
	PurgeStaleDrafts(ctx context.Context, maxAge time.Duration) (int, error)
}

// DraftJanitor periodically removes checkout drafts of abandoned checkouts.
type DraftJanitor struct {
	interval time.Duration
	maxAge   time.Duration
	purger   DraftPurger
	log      *zerolog.Logger
}

func NewDraftJanitor(interval, maxAge time.Duration, purger DraftPurger, logger *zerolog.Logger) *DraftJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	l := logger.With().Str("component", "DraftJanitor").Logger()
	return &DraftJanitor{interval: interval, maxAge: maxAge, purger: purger, log: &l}
}

func (w *DraftJanitor) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting draft janitor")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping draft janitor")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *DraftJanitor) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := w.purger.PurgeStaleDrafts(runCtx, w.maxAge)
	if err != nil {
		metrics.IncWorkerTask("draft_janitor", "failed")
		w.log.Error().Err(err).Msg("draft janitor error")
		return
	}
	metrics.IncWorkerTask("draft_janitor", "ok")
	if n > 0 {
		w.log.Info().Int("count", n).Msg("stale checkout drafts removed")
	}
}
