package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ repository.ExpiryLogRepository = (*expiryLogRepo)(nil)

type expiryLogRepo struct{ pool *pgxpool.Pool }

func NewExpiryLogRepo(pool *pgxpool.Pool) *expiryLogRepo {
	return &expiryLogRepo{pool: pool}
}

func (r *expiryLogRepo) SaveEntries(ctx context.Context, tx repository.Tx, entries []*model.ExpiryLog) error {
	const q = `
INSERT INTO expiry_logs (id, batch_id, campaign_id, user_id, plan_type, expired_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	for _, e := range entries {
		_, err := execSQL(ctx, r.pool, tx, q,
			e.ID, e.BatchID, e.CampaignID, e.UserID, e.PlanType, e.ExpiredAt, e.CreatedAt)
		if err != nil {
			if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
				return err
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *expiryLogRepo) SaveSummary(ctx context.Context, tx repository.Tx, s *model.SweepSummary) error {
	const q = `
INSERT INTO expiry_sweeps (batch_id, total_processed, started_at, finished_at)
VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, s.BatchID, s.TotalProcessed, s.StartedAt, s.FinishedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
