// File: internal/usecase/coupon_uc.go
package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

// Coupon validity windows are widened to the extreme timezone offsets so a
// calendar-date bound never excludes any timezone on that date: a coupon
// "valid from day X" opens when day X starts at UTC+14 (Kiritimati) and one
// "valid until day D" closes when day D ends at UTC-14.
var (
	earliestTZ = time.FixedZone("UTC+14", 14*60*60)
	latestTZ   = time.FixedZone("UTC-14", -14*60*60)
)

// CouponVerdict is the result of validating a coupon against an order.
// Business-rule rejections set Valid=false with a user-facing Reason;
// they are not errors.
type CouponVerdict struct {
	Valid          bool
	DiscountAmount int64
	FinalAmount    int64
	Reason         string
}

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

type CouponUseCase interface {
	// Validate evaluates a coupon against an order. It performs no mutation;
	// usage counters are incremented by the caller only after the associated
	// payment succeeds, so an abandoned checkout never consumes inventory.
	Validate(ctx context.Context, code string, plan model.PlanType, amount int64, userID string) (CouponVerdict, error)
	Create(ctx context.Context, adminID string, c *model.Coupon) error
}

type couponUC struct {
	coupons repository.CouponRepository
	audit   AuditRecorder
	log     *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, audit AuditRecorder, logger *zerolog.Logger) *couponUC {
	l := logger.With().Str("component", "CouponUC").Logger()
	return &couponUC{coupons: coupons, audit: audit, log: &l}
}

func invalid(reason string) CouponVerdict {
	return CouponVerdict{Valid: false, Reason: reason}
}

// Validate runs the checks sequentially, short-circuiting on the first
// failure; the order matters for correct user-facing messages.
func (uc *couponUC) Validate(ctx context.Context, code string, plan model.PlanType, amount int64, userID string) (CouponVerdict, error) {
	if amount <= 0 {
		return CouponVerdict{}, domain.ErrInvalidArgument
	}
	key := model.NormalizeCouponCode(code)
	if key == "" {
		return CouponVerdict{}, domain.ErrInvalidArgument
	}

	c, err := uc.coupons.FindByCode(ctx, nil, key)
	if err != nil {
		if err == domain.ErrNotFound || err == domain.ErrCouponNotFound {
			return invalid("coupon not found"), nil
		}
		return CouponVerdict{}, err
	}
	if !c.IsActive {
		return invalid("coupon is not active"), nil
	}

	now := time.Now()
	if c.ValidFrom != nil {
		from := startOfDayIn(*c.ValidFrom, earliestTZ)
		if now.Before(from) {
			return invalid("coupon is not valid yet"), nil
		}
	}
	if c.ValidUntil != nil {
		until := endOfDayIn(*c.ValidUntil, latestTZ)
		if now.After(until) {
			return invalid("coupon has expired"), nil
		}
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return invalid("coupon usage limit reached"), nil
	}
	if !c.AppliesToPlan(plan) {
		return invalid("coupon is not applicable to this plan"), nil
	}
	if amount < c.MinAmount {
		return invalid("order amount is below the coupon minimum"), nil
	}
	if c.PerUserLimit > 0 {
		red, err := uc.coupons.FindRedemption(ctx, nil, key, userID)
		if err != nil && err != domain.ErrNotFound {
			return CouponVerdict{}, err
		}
		if red != nil && red.Count >= c.PerUserLimit {
			return invalid("coupon already used the maximum number of times"), nil
		}
	}

	discount := computeDiscount(c, amount)
	if discount <= 0 {
		return invalid("coupon provides no discount"), nil
	}
	return CouponVerdict{
		Valid:          true,
		DiscountAmount: discount,
		FinalAmount:    amount - discount,
	}, nil
}

func (uc *couponUC) Create(ctx context.Context, adminID string, c *model.Coupon) (err error) {
	defer func() {
		uc.audit.Record(ctx, adminID, "coupon.create", c.Code, fmt.Sprintf("type=%s value=%d", c.Type, c.Value), err)
	}()

	c.Code = model.NormalizeCouponCode(c.Code)
	if c.Code == "" || c.Value <= 0 {
		return domain.ErrInvalidArgument
	}
	if c.Type != model.CouponTypeFlat && c.Type != model.CouponTypePercent {
		return domain.ErrInvalidArgument
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return uc.coupons.Save(ctx, nil, c)
}

func computeDiscount(c *model.Coupon, amount int64) int64 {
	var d int64
	switch c.Type {
	case model.CouponTypeFlat:
		d = c.Value
	case model.CouponTypePercent:
		d = int64(math.Round(float64(amount) * float64(c.Value) / 100))
	}
	if d > amount {
		d = amount
	}
	return d
}

// The stored bound carries a calendar date (read in UTC); the boundary
// instant is then built in the widening zone.
func startOfDayIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(time.UTC).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDayIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(time.UTC).Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}
