package model

import "time"

type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusInactive CampaignStatus = "inactive"
	CampaignStatusRefunded CampaignStatus = "refunded"
)

// Campaign owns the paid activation state of one photo-frame campaign.
// At most one effective payment activates a campaign at a time; reactivation
// overwrites the plan and expiry fields atomically.
type Campaign struct {
	ID             string // UUID
	UserID         string // owner
	Name           string
	IsActive       bool
	Status         CampaignStatus
	IsFreeCampaign bool
	PlanType       PlanType
	AmountPaid     int64
	PaymentID      string // OrderID of the activating payment
	ExpiresAt      *time.Time // nil = never expires (free/legacy)
	LastPaymentAt  *time.Time
	CreatedAt      time.Time
}

// Expired reports whether a campaign's paid period has lapsed.
func (c *Campaign) Expired(now time.Time) bool {
	return c.IsActive && c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}
