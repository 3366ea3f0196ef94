// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

// Webhook types declared by the gateway. Unknown types are acknowledged and
// ignored for forward compatibility.
const (
	WebhookPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	WebhookPaymentFailed  = "PAYMENT_FAILED_WEBHOOK"
)

// Reconciliation outcomes, used for logging and metrics labels.
const (
	OutcomeActivated = "activated"
	OutcomeFailed    = "marked_failed"
	OutcomeDuplicate = "duplicate"
	OutcomeUnmatched = "unmatched"
	OutcomeIgnored   = "ignored"
	OutcomeError     = "error"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookResult describes what one delivery did, for logging and metrics.
type WebhookResult struct {
	Outcome string
	Amount  int64 // paid amount, set when Outcome is activated
}

// WebhookUseCase converts an at-least-once, possibly-duplicated gateway
// notification into an idempotent local state transition.
type WebhookUseCase interface {
	// Process dispatches one verified webhook delivery. The returned outcome
	// is always meaningful; err is non-nil only for internal failures, which
	// the HTTP handler still acknowledges with 200.
	Process(ctx context.Context, webhookType, orderID, gatewayPaymentID string) (WebhookResult, error)
}

type webhookUC struct {
	payments   repository.PaymentRepository
	activation ActivationUseCase
	paymentUC  PaymentUseCase
	log        *zerolog.Logger
}

func NewWebhookUseCase(
	payments repository.PaymentRepository,
	activation ActivationUseCase,
	paymentUC PaymentUseCase,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{payments: payments, activation: activation, paymentUC: paymentUC, log: &l}
}

func (uc *webhookUC) Process(ctx context.Context, webhookType, orderID, gatewayPaymentID string) (WebhookResult, error) {
	switch webhookType {
	case WebhookPaymentSuccess:
		return uc.processSuccess(ctx, orderID, gatewayPaymentID)
	case WebhookPaymentFailed:
		return uc.processFailure(ctx, orderID, gatewayPaymentID)
	default:
		uc.log.Info().Str("type", webhookType).Msg("unknown webhook type ignored")
		return WebhookResult{Outcome: OutcomeIgnored}, nil
	}
}

func (uc *webhookUC) processSuccess(ctx context.Context, orderID, gatewayPaymentID string) (WebhookResult, error) {
	p, err := uc.payments.FindByOrderID(ctx, nil, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No local record: the order was never created on our side. That
			// is a local-creation bug, not a webhook bug; ack so the gateway
			// stops retrying and leave the evidence in the log.
			uc.log.Error().Str("order_id", orderID).Msg("webhook for unknown order")
			return WebhookResult{Outcome: OutcomeUnmatched}, nil
		}
		return WebhookResult{Outcome: OutcomeError}, err
	}
	if p.Status == model.PaymentStatusSuccess {
		uc.log.Info().Str("order_id", orderID).Msg("duplicate success webhook")
		return WebhookResult{Outcome: OutcomeDuplicate}, nil
	}

	if _, err := uc.activation.ActivateFromPayment(ctx, orderID, gatewayPaymentID); err != nil {
		return WebhookResult{Outcome: OutcomeError}, err
	}
	if p.CouponCode != "" {
		// Usage counts are advisory for reporting; a failed increment must
		// not unwind an already-committed activation.
		if err := uc.paymentUC.RedeemCoupon(ctx, p.CouponCode, p.UserID); err != nil {
			uc.log.Error().Err(err).
				Str("order_id", orderID).
				Str("coupon", p.CouponCode).
				Msg("coupon redemption not recorded")
		}
	}
	return WebhookResult{Outcome: OutcomeActivated, Amount: p.Amount}, nil
}

func (uc *webhookUC) processFailure(ctx context.Context, orderID, gatewayPaymentID string) (WebhookResult, error) {
	err := uc.paymentUC.MarkFailed(ctx, orderID, gatewayPaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			uc.log.Error().Str("order_id", orderID).Msg("failure webhook for unknown order")
			return WebhookResult{Outcome: OutcomeUnmatched}, nil
		}
		return WebhookResult{Outcome: OutcomeError}, err
	}
	return WebhookResult{Outcome: OutcomeFailed}, nil
}
