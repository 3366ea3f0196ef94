// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/adapter"
	"photoframe-saas/internal/domain/ports/repository"
)

// GSTRatePercent is applied to every paid order. Amounts are stored
// inclusive of tax; the base is derived at order creation.
const GSTRatePercent = 18

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// CreateOrder mints an order id, registers it with the gateway and
	// stores a pending PaymentRecord. An optional validated coupon code is
	// applied to the amount before the gateway sees it.
	CreateOrder(ctx context.Context, userID, campaignID string, plan model.PlanType, amount int64, couponCode string) (*model.PaymentRecord, adapter.OrderResult, error)
	// Refund refunds a successful payment at the gateway, then atomically
	// marks it refunded and deactivates the linked campaign.
	Refund(ctx context.Context, adminID, orderID string, amount int64, note string) (*model.PaymentRecord, error)
	// MarkFailed records a PAYMENT_FAILED webhook outcome. The campaign is
	// never touched by a failure.
	MarkFailed(ctx context.Context, orderID, gatewayPaymentID string) error
	// RedeemCoupon increments coupon usage after the associated payment
	// actually succeeded.
	RedeemCoupon(ctx context.Context, code, userID string) error
}

type paymentUC struct {
	payments  repository.PaymentRepository
	campaigns repository.CampaignRepository
	coupons   repository.CouponRepository
	couponUC  CouponUseCase
	gateway   adapter.PaymentGateway
	audit     AuditRecorder
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	campaigns repository.CampaignRepository,
	coupons repository.CouponRepository,
	couponUC CouponUseCase,
	gateway adapter.PaymentGateway,
	audit AuditRecorder,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:  payments,
		campaigns: campaigns,
		coupons:   coupons,
		couponUC:  couponUC,
		gateway:   gateway,
		audit:     audit,
		tm:        tm,
		log:       &l,
	}
}

func (uc *paymentUC) CreateOrder(ctx context.Context, userID, campaignID string, plan model.PlanType, amount int64, couponCode string) (*model.PaymentRecord, adapter.OrderResult, error) {
	if userID == "" || campaignID == "" || amount <= 0 {
		return nil, adapter.OrderResult{}, domain.ErrInvalidArgument
	}
	if _, err := uc.campaigns.FindByID(ctx, nil, campaignID); err != nil {
		if err == domain.ErrNotFound {
			return nil, adapter.OrderResult{}, domain.ErrCampaignNotFound
		}
		return nil, adapter.OrderResult{}, err
	}

	payable := amount
	coupon := ""
	if couponCode != "" {
		coupon = model.NormalizeCouponCode(couponCode)
		verdict, err := uc.couponUC.Validate(ctx, coupon, plan, amount, userID)
		if err != nil {
			return nil, adapter.OrderResult{}, err
		}
		if !verdict.Valid {
			return nil, adapter.OrderResult{}, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, verdict.Reason)
		}
		payable = verdict.FinalAmount
	}

	now := time.Now()
	orderID := model.NewOrderID(campaignID, now)

	res, err := uc.gateway.CreateOrder(ctx, orderID, payable, userID, string(plan))
	if err != nil {
		return nil, adapter.OrderResult{}, fmt.Errorf("create order %s: %w", orderID, err)
	}

	base := int64(math.Round(float64(payable) * 100 / (100 + GSTRatePercent)))
	p := &model.PaymentRecord{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		CampaignID:  campaignID,
		UserID:      userID,
		PlanType:    plan,
		Amount:      payable,
		Status:      model.PaymentStatusPending,
		CouponCode:  coupon,
		CreatedAt:   now,
		BaseAmount:  base,
		GSTRate:     GSTRatePercent,
		GSTAmount:   payable - base,
		TotalAmount: payable,
	}
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		return nil, adapter.OrderResult{}, err
	}

	uc.log.Info().
		Str("order_id", orderID).
		Str("campaign_id", campaignID).
		Int64("amount", payable).
		Str("plan", string(plan)).
		Msg("order created")
	return p, res, nil
}

func (uc *paymentUC) Refund(ctx context.Context, adminID, orderID string, amount int64, note string) (*model.PaymentRecord, error) {
	p, err := uc.refund(ctx, orderID, amount, note)
	uc.audit.Record(ctx, adminID, "payment.refund", orderID, fmt.Sprintf("amount=%d note=%s", amount, note), err)
	return p, err
}

func (uc *paymentUC) refund(ctx context.Context, orderID string, amount int64, note string) (*model.PaymentRecord, error) {
	p, err := uc.payments.FindByOrderID(ctx, nil, orderID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	switch p.Status {
	case model.PaymentStatusRefunded, model.PaymentStatusRefundUnknown:
		// No gateway call: retrying an already-settled refund could pay out twice.
		return nil, domain.ErrAlreadyRefunded
	case model.PaymentStatusSuccess:
	default:
		return nil, fmt.Errorf("%w: payment status is %s", domain.ErrInvalidArgument, p.Status)
	}
	if amount <= 0 {
		amount = p.Amount
	}
	if amount > p.Amount {
		return nil, fmt.Errorf("%w: refund amount %d exceeds paid %d", domain.ErrInvalidArgument, amount, p.Amount)
	}

	// Gateway first, local state second: a definitive gateway failure leaves
	// no partial refund state. The gateway is addressed by the original
	// order id, the only identifier it knows.
	res, err := uc.gateway.Refund(ctx, p.OrderID, amount, note)
	if err != nil {
		if errors.Is(err, domain.ErrRefundUnknown) {
			// Ambiguous transport outcome: terminal state, operator reconciles
			// against the gateway dashboard before any retry.
			now := time.Now()
			if merr := uc.payments.MarkRefunded(ctx, nil, p.ID, model.PaymentStatusRefundUnknown, amount, note, now); merr != nil {
				uc.log.Error().Err(merr).Str("order_id", orderID).Msg("failed to persist refund_unknown")
			}
			p.Status = model.PaymentStatusRefundUnknown
			return p, domain.ErrRefundUnknown
		}
		return nil, fmt.Errorf("refund %s: %w", orderID, err)
	}

	now := time.Now()
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.payments.MarkRefunded(ctx, tx, p.ID, model.PaymentStatusRefunded, amount, note, now); err != nil {
			return err
		}
		return uc.campaigns.Deactivate(ctx, tx, p.CampaignID, model.CampaignStatusRefunded)
	})
	if err != nil {
		return nil, err
	}

	p.Status = model.PaymentStatusRefunded
	p.RefundedAt = &now
	p.RefundAmount = &amount
	p.RefundNote = note

	uc.log.Info().
		Str("order_id", orderID).
		Str("refund_id", res.RefundID).
		Int64("amount", amount).
		Msg("payment refunded")
	return p, nil
}

func (uc *paymentUC) MarkFailed(ctx context.Context, orderID, gatewayPaymentID string) error {
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := uc.payments.FindByOrderID(ctx, tx, orderID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrPaymentNotFound
			}
			return err
		}
		if !p.Status.CanTransitionTo(model.PaymentStatusFailed) {
			// Out-of-order delivery after a success, or a repeat failure.
			uc.log.Warn().Str("order_id", orderID).Str("status", string(p.Status)).Msg("failure webhook ignored")
			return nil
		}
		now := time.Now()
		return uc.payments.UpdateStatus(ctx, tx, p.ID, model.PaymentStatusFailed, gatewayPaymentID, &now)
	})
}

func (uc *paymentUC) RedeemCoupon(ctx context.Context, code, userID string) error {
	code = model.NormalizeCouponCode(code)
	if code == "" || userID == "" {
		return domain.ErrInvalidArgument
	}
	return uc.coupons.IncrementUsage(ctx, nil, code, userID)
}
