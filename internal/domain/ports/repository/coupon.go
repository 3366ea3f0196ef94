package repository

import (
	"context"

	"photoframe-saas/internal/domain/model"
)

type CouponRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Coupon) error
	// FindByCode expects an already-normalized (uppercased, trimmed) code.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	FindRedemption(ctx context.Context, tx Tx, code, userID string) (*model.Redemption, error)
	// IncrementUsage bumps the coupon's UsedCount and the user's redemption
	// count in one statement each; called only after the payment succeeded.
	IncrementUsage(ctx context.Context, tx Tx, code, userID string) error
}
