package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

const couponColumns = `code, type, value, applicable_plans, min_amount, usage_limit, used_count, per_user_limit, valid_from, valid_until, is_active, created_at`

func (r *couponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	plans := make([]string, len(c.ApplicablePlans))
	for i, p := range c.ApplicablePlans {
		plans[i] = string(p)
	}
	const q = `
INSERT INTO coupons (` + couponColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (code) DO UPDATE SET
  type=$2, value=$3, applicable_plans=$4, min_amount=$5, usage_limit=$6,
  per_user_limit=$8, valid_from=$9, valid_until=$10, is_active=$11;`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.Code, c.Type, c.Value, plans, c.MinAmount, c.UsageLimit,
		c.UsedCount, c.PerUserLimit, c.ValidFrom, c.ValidUntil, c.IsActive, c.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE code=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}

	c := &model.Coupon{}
	var plans []string
	err = row.Scan(
		&c.Code, &c.Type, &c.Value, &plans, &c.MinAmount, &c.UsageLimit,
		&c.UsedCount, &c.PerUserLimit, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	for _, p := range plans {
		c.ApplicablePlans = append(c.ApplicablePlans, model.PlanType(p))
	}
	return c, nil
}

func (r *couponRepo) FindRedemption(ctx context.Context, tx repository.Tx, code, userID string) (*model.Redemption, error) {
	const q = `SELECT coupon_code, user_id, count, updated_at FROM coupon_redemptions WHERE coupon_code=$1 AND user_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, code, userID)
	if err != nil {
		return nil, err
	}

	red := &model.Redemption{}
	if err := row.Scan(&red.CouponCode, &red.UserID, &red.Count, &red.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return red, nil
}

// IncrementUsage bumps the coupon counter and upserts the per-user
// redemption row. Called after the associated payment succeeded. The WHERE
// guard holds used_count at usage_limit even under concurrent redemptions.
func (r *couponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, code, userID string) error {
	const qCoupon = `
UPDATE coupons SET used_count = used_count + 1
WHERE code=$1 AND (usage_limit = 0 OR used_count < usage_limit);`
	tag, err := execSQL(ctx, r.pool, tx, qCoupon, code)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		row, rerr := pickRow(ctx, r.pool, tx, `SELECT 1 FROM coupons WHERE code=$1;`, code)
		if rerr != nil {
			return rerr
		}
		var one int
		if err := row.Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrCouponNotFound
			}
			return domain.ErrReadDatabaseRow
		}
		return domain.ErrCouponExhausted
	}

	const qRedemption = `
INSERT INTO coupon_redemptions (coupon_code, user_id, count, updated_at)
VALUES ($1,$2,1,NOW())
ON CONFLICT (coupon_code, user_id) DO UPDATE SET
  count = coupon_redemptions.count + 1, updated_at = NOW();`
	if _, err := execSQL(ctx, r.pool, tx, qRedemption, code, userID); err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
