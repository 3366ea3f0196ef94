package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
	"photoframe-saas/internal/infra/metrics"
	red "photoframe-saas/internal/infra/redis"
)

var _ repository.CouponRepository = (*couponRepoCacheDecorator)(nil)

// couponRepoCacheDecorator is a read-through cache in front of the coupon
// repo. Coupon definitions change rarely and are read on every checkout;
// usage counters are NOT cached, so redemption-limit checks always hit the
// database.
type couponRepoCacheDecorator struct {
	inner repository.CouponRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCouponRepoCacheDecorator(inner repository.CouponRepository, cache red.RedisClient, ttl time.Duration) repository.CouponRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &couponRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func couponKey(code string) string { return fmt.Sprintf("coupon:%s", code) }

func (d *couponRepoCacheDecorator) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	if tx != nil {
		// Inside a transaction the caller needs current row state.
		return d.inner.FindByCode(ctx, tx, code)
	}
	if val, err := d.cache.Get(ctx, couponKey(code)); err == nil {
		var c model.Coupon
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("coupon", "hit")
			return &c, nil
		}
	}

	metrics.IncCacheRequest("coupon", "miss")
	c, err := d.inner.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(c); err == nil {
		_ = d.cache.Set(ctx, couponKey(code), b, d.ttl)
	}
	return c, nil
}

func (d *couponRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	_ = d.cache.Del(ctx, couponKey(c.Code))
	return d.inner.Save(ctx, tx, c)
}

func (d *couponRepoCacheDecorator) FindRedemption(ctx context.Context, tx repository.Tx, code, userID string) (*model.Redemption, error) {
	return d.inner.FindRedemption(ctx, tx, code, userID)
}

func (d *couponRepoCacheDecorator) IncrementUsage(ctx context.Context, tx repository.Tx, code, userID string) error {
	// The cached copy carries UsedCount; drop it so usage-limit checks see
	// the incremented value.
	_ = d.cache.Del(ctx, couponKey(code))
	return d.inner.IncrementUsage(ctx, tx, code, userID)
}
