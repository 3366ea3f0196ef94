// File: internal/usecase/expiry_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

// Compile-time check
var _ ExpiryUseCase = (*expiryUC)(nil)

type ExpiryUseCase interface {
	// SweepExpired deactivates every active campaign whose paid period has
	// elapsed and returns the number processed. Re-running is safe:
	// deactivated campaigns no longer match the query.
	SweepExpired(ctx context.Context) (int, error)
}

type expiryUC struct {
	campaigns repository.CampaignRepository
	expiryLog repository.ExpiryLogRepository
	tm        repository.TransactionManager
	batchSize int
	log       *zerolog.Logger
}

func NewExpiryUseCase(
	campaigns repository.CampaignRepository,
	expiryLog repository.ExpiryLogRepository,
	tm repository.TransactionManager,
	batchSize int,
	logger *zerolog.Logger,
) *expiryUC {
	if batchSize <= 0 {
		batchSize = 100
	}
	l := logger.With().Str("component", "ExpiryUC").Logger()
	return &expiryUC{
		campaigns: campaigns,
		expiryLog: expiryLog,
		tm:        tm,
		batchSize: batchSize,
		log:       &l,
	}
}

// SweepExpired processes lapsed campaigns in fixed-size batches, one
// campaign per transaction. A failing campaign is logged and skipped so the
// sweep still reaches the rest; the summary row is written at the end
// regardless of per-campaign outcome.
func (uc *expiryUC) SweepExpired(ctx context.Context) (int, error) {
	started := time.Now()
	batchID := uuid.NewString()
	total := 0

	var firstErr error
	for {
		expired, err := uc.campaigns.ListExpired(ctx, nil, time.Now(), uc.batchSize)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		if len(expired) == 0 {
			break
		}

		n, err := uc.sweepBatch(ctx, batchID, expired)
		total += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
		// A batch that made no progress would loop on the same rows: every
		// campaign in it failed and still matches the query.
		if n == 0 {
			break
		}
		if len(expired) < uc.batchSize {
			break
		}
	}

	summary := &model.SweepSummary{
		BatchID:        batchID,
		TotalProcessed: total,
		StartedAt:      started,
		FinishedAt:     time.Now(),
	}
	if err := uc.expiryLog.SaveSummary(ctx, nil, summary); err != nil {
		uc.log.Error().Err(err).Str("batch_id", batchID).Msg("sweep summary write failed")
	}
	uc.log.Info().Str("batch_id", batchID).Int("total", total).Msg("expiry sweep finished")
	return total, firstErr
}

// sweepBatch deactivates each campaign in its own transaction. A failing
// campaign is logged and skipped so it cannot roll back, or block, the rest
// of the batch; it stays expired-and-active and is retried on the next run.
func (uc *expiryUC) sweepBatch(ctx context.Context, batchID string, expired []*model.Campaign) (int, error) {
	n := 0
	var firstErr error
	for _, c := range expired {
		err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := uc.campaigns.Deactivate(ctx, tx, c.ID, model.CampaignStatusInactive); err != nil {
				return err
			}
			return uc.expiryLog.SaveEntries(ctx, tx, []*model.ExpiryLog{{
				ID:         uuid.NewString(),
				BatchID:    batchID,
				CampaignID: c.ID,
				UserID:     c.UserID,
				PlanType:   c.PlanType,
				ExpiredAt:  *c.ExpiresAt,
				CreatedAt:  time.Now(),
			}})
		})
		if err != nil {
			uc.log.Error().Err(err).Str("batch_id", batchID).Str("campaign_id", c.ID).
				Msg("campaign expiry failed, continuing with the rest")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}
