//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
	red "photoframe-saas/internal/infra/redis"
)

// mockRedisClient lets each test control cache behavior directly.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", red.Nil
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}

func (m *mockRedisClient) Close() error { return nil }

// mockInnerCouponRepo mocks the database repository the decorator wraps.
type mockInnerCouponRepo struct {
	SaveFunc           func(ctx context.Context, tx repository.Tx, c *model.Coupon) error
	FindByCodeFunc     func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error)
	FindRedemptionFunc func(ctx context.Context, tx repository.Tx, code, userID string) (*model.Redemption, error)
	IncrementUsageFunc func(ctx context.Context, tx repository.Tx, code, userID string) error
}

var _ repository.CouponRepository = (*mockInnerCouponRepo)(nil)

func (m *mockInnerCouponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	return m.SaveFunc(ctx, tx, c)
}

func (m *mockInnerCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	return m.FindByCodeFunc(ctx, tx, code)
}

func (m *mockInnerCouponRepo) FindRedemption(ctx context.Context, tx repository.Tx, code, userID string) (*model.Redemption, error) {
	return m.FindRedemptionFunc(ctx, tx, code, userID)
}

func (m *mockInnerCouponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, code, userID string) error {
	return m.IncrementUsageFunc(ctx, tx, code, userID)
}

func TestCouponRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	coupon := &model.Coupon{Code: "SAVE20", Type: model.CouponTypePercent, Value: 20, IsActive: true}
	couponJSON, _ := json.Marshal(coupon)

	t.Run("FindByCode returns from cache on hit", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return string(couponJSON), nil
			},
		}
		innerCalled := false
		inner := &mockInnerCouponRepo{
			FindByCodeFunc: func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
				innerCalled = true
				return nil, nil
			},
		}

		d := NewCouponRepoCacheDecorator(inner, mockRedis, time.Hour)

		got, err := d.FindByCode(ctx, nil, "SAVE20")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if got == nil || got.Code != "SAVE20" {
			t.Error("did not return the cached coupon")
		}
	})

	t.Run("FindByCode falls through and populates on miss", func(t *testing.T) {
		var setKey string
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", red.Nil
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				setKey = key
				return nil
			},
		}
		inner := &mockInnerCouponRepo{
			FindByCodeFunc: func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
				return coupon, nil
			},
		}

		d := NewCouponRepoCacheDecorator(inner, mockRedis, time.Hour)

		got, err := d.FindByCode(ctx, nil, "SAVE20")
		if err != nil || got == nil {
			t.Fatalf("expected the inner coupon, got %v %v", got, err)
		}
		if setKey != "coupon:SAVE20" {
			t.Errorf("cache populated under %q", setKey)
		}
	})

	t.Run("FindByCode bypasses the cache inside a transaction", func(t *testing.T) {
		cacheRead := false
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				cacheRead = true
				return string(couponJSON), nil
			},
		}
		inner := &mockInnerCouponRepo{
			FindByCodeFunc: func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
				return coupon, nil
			},
		}

		d := NewCouponRepoCacheDecorator(inner, mockRedis, time.Hour)

		if _, err := d.FindByCode(ctx, struct{}{}, "SAVE20"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cacheRead {
			t.Error("transactional read must not consult the cache")
		}
	})

	t.Run("IncrementUsage invalidates the cached coupon", func(t *testing.T) {
		var deleted []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}
		inner := &mockInnerCouponRepo{
			IncrementUsageFunc: func(ctx context.Context, tx repository.Tx, code, userID string) error {
				return nil
			},
		}

		d := NewCouponRepoCacheDecorator(inner, mockRedis, time.Hour)

		if err := d.IncrementUsage(ctx, nil, "SAVE20", "user-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(deleted) != 1 || deleted[0] != "coupon:SAVE20" {
			t.Errorf("deleted keys: %v", deleted)
		}
	})

	t.Run("Save invalidates before writing through", func(t *testing.T) {
		var deleted []string
		saved := false
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}
		inner := &mockInnerCouponRepo{
			SaveFunc: func(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
				saved = true
				return nil
			},
		}

		d := NewCouponRepoCacheDecorator(inner, mockRedis, time.Hour)

		if err := d.Save(ctx, nil, coupon); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !saved || len(deleted) != 1 {
			t.Errorf("saved=%v deleted=%v", saved, deleted)
		}
	})
}
