package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"photoframe-saas/internal/infra/metrics"
	"photoframe-saas/internal/usecase"
)

// ExpirySweeper periodically deactivates lapsed campaigns via the use case.
// Overlapping runs are safe: a deactivated campaign no longer matches the
// sweep query, so two ticks can only split the work, never double it.
type ExpirySweeper struct {
	interval time.Duration
	expiryUC usecase.ExpiryUseCase
	log      *zerolog.Logger
}

func NewExpirySweeper(interval time.Duration, expiryUC usecase.ExpiryUseCase, logger *zerolog.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	l := logger.With().Str("component", "ExpirySweeper").Logger()
	return &ExpirySweeper{interval: interval, expiryUC: expiryUC, log: &l}
}

func (w *ExpirySweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry sweeper")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.expiryUC.SweepExpired(ctx)
			if err != nil {
				metrics.IncSweepRun("error")
				w.log.Error().Err(err).Msg("expiry sweep error")
			} else {
				metrics.IncSweepRun("ok")
			}
			if n > 0 {
				metrics.IncCampaignsExpired(n)
				w.log.Info().Int("count", n).Msg("campaigns expired")
			}
		}
	}
}
