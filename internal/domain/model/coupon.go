package model

import (
	"strings"
	"time"
)

type CouponType string

const (
	CouponTypeFlat    CouponType = "flat"
	CouponTypePercent CouponType = "percent"
)

// Coupon is a discount rule keyed by its normalized code.
type Coupon struct {
	Code            string // uppercased, trimmed
	Type            CouponType
	Value           int64
	ApplicablePlans []PlanType // empty = all plans
	MinAmount       int64
	UsageLimit      int64 // 0 = unlimited
	UsedCount       int64
	PerUserLimit    int64 // 0 = unlimited
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	IsActive        bool
	CreatedAt       time.Time
}

// Redemption tracks one user's cumulative usage of a coupon.
type Redemption struct {
	CouponCode string
	UserID     string
	Count      int64
	UpdatedAt  time.Time
}

// NormalizeCouponCode returns the canonical lookup key for a coupon code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AppliesToPlan reports whether the coupon may be used with the given plan.
func (c *Coupon) AppliesToPlan(plan PlanType) bool {
	if len(c.ApplicablePlans) == 0 {
		return true
	}
	for _, p := range c.ApplicablePlans {
		if p == plan {
			return true
		}
	}
	return false
}
