package repository

import (
	"context"
	"time"

	"photoframe-saas/internal/domain/model"
)

// ActivationUpdate is the single atomic write that flips a campaign active.
type ActivationUpdate struct {
	PlanType      model.PlanType
	AmountPaid    int64
	PaymentID     string // OrderID of the activating payment
	ExpiresAt     *time.Time
	LastPaymentAt time.Time
	IsFree        bool
}

type CampaignRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Campaign) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Campaign, error)
	Activate(ctx context.Context, tx Tx, id string, upd ActivationUpdate) error
	Deactivate(ctx context.Context, tx Tx, id string, status model.CampaignStatus) error
	// ListExpired returns active campaigns whose ExpiresAt is before now,
	// oldest first, at most limit rows.
	ListExpired(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Campaign, error)
}
