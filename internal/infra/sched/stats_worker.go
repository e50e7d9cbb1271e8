package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-giveaway-bot/internal/infra/metrics"
	"telegram-giveaway-bot/internal/usecase"
)

// StatsWorker periodically refreshes the ledger-total gauges.
type StatsWorker struct {
	interval time.Duration
	statsUC  usecase.StatsUseCase
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, statsUC usecase.StatsUseCase, logger *zerolog.Logger) *StatsWorker {
	compLog := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		statsUC:  statsUC,
		log:      &compLog,
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting stats worker")
	// Run once on startup, then on every tick
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	totals, err := w.statsUC.Totals(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("stats refresh failed")
		return
	}
	metrics.SetLedgerTotals(totals.Users, totals.Codes, totals.Redemptions)
	w.log.Debug().
		Int("users", totals.Users).
		Int("codes", totals.Codes).
		Int("redemptions", totals.Redemptions).
		Msg("ledger totals refreshed")
}
