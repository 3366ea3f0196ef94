package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ repository.CampaignRepository = (*campaignRepo)(nil)

type campaignRepo struct{ pool *pgxpool.Pool }

func NewCampaignRepo(pool *pgxpool.Pool) *campaignRepo {
	return &campaignRepo{pool: pool}
}

const campaignColumns = `id, user_id, name, is_active, status, is_free_campaign, plan_type, amount_paid, payment_id, expires_at, last_payment_at, created_at`

func scanCampaign(row pgx.Row) (*model.Campaign, error) {
	c := &model.Campaign{}
	var paymentID *string
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.IsActive, &c.Status, &c.IsFreeCampaign,
		&c.PlanType, &c.AmountPaid, &paymentID, &c.ExpiresAt, &c.LastPaymentAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if paymentID != nil {
		c.PaymentID = *paymentID
	}
	return c, nil
}

func (r *campaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.Campaign) error {
	const q = `
INSERT INTO campaigns (` + campaignColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  name=$3, is_active=$4, status=$5, is_free_campaign=$6, plan_type=$7,
  amount_paid=$8, payment_id=NULLIF($9,''), expires_at=$10, last_payment_at=$11;`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.UserID, c.Name, c.IsActive, c.Status, c.IsFreeCampaign,
		c.PlanType, c.AmountPaid, c.PaymentID, c.ExpiresAt, c.LastPaymentAt, c.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *campaignRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCampaign(row)
}

// Activate performs the single atomic write that flips a campaign active,
// overwriting plan and expiry fields from the activating payment.
func (r *campaignRepo) Activate(ctx context.Context, tx repository.Tx, id string, upd repository.ActivationUpdate) error {
	const q = `
UPDATE campaigns
   SET is_active=TRUE,
       status='active',
       plan_type=$2,
       amount_paid=$3,
       payment_id=NULLIF($4,''),
       expires_at=$5,
       last_payment_at=$6,
       is_free_campaign=$7
 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, upd.PlanType, upd.AmountPaid, upd.PaymentID, upd.ExpiresAt, upd.LastPaymentAt, upd.IsFree)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *campaignRepo) Deactivate(ctx context.Context, tx repository.Tx, id string, status model.CampaignStatus) error {
	const q = `UPDATE campaigns SET is_active=FALSE, status=$2 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *campaignRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Campaign, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + campaignColumns + `
  FROM campaigns
 WHERE is_active=TRUE AND expires_at IS NOT NULL AND expires_at < $1
 ORDER BY expires_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
