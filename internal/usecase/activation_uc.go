// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

// ActivationUseCase is the single state machine flipping campaigns between
// inactive/active/refunded. Every caller (webhook, admin, free-tier grant)
// goes through the same idempotency guard, so duplicate webhook deliveries
// or repeated admin clicks can never double-extend an expiry.
type ActivationUseCase interface {
	// ActivateFromPayment activates the campaign referenced by the payment
	// with the given order id. If the payment is already success it is a
	// no-op returning the current campaign state.
	ActivateFromPayment(ctx context.Context, orderID, gatewayPaymentID string) (*model.Campaign, error)
	// ActivateManually is the admin-invoked variant. It re-validates that
	// the payment actually belongs to campaignID before mutating anything.
	ActivateManually(ctx context.Context, adminID, orderID, campaignID string) (*model.Campaign, error)
	// GrantFree activates a campaign on the free tier with no expiry.
	GrantFree(ctx context.Context, adminID, campaignID string) (*model.Campaign, error)
}

type activationUC struct {
	payments  repository.PaymentRepository
	campaigns repository.CampaignRepository
	users     repository.UserRepository
	audit     AuditRecorder
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewActivationUseCase(
	payments repository.PaymentRepository,
	campaigns repository.CampaignRepository,
	users repository.UserRepository,
	audit AuditRecorder,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *activationUC {
	l := logger.With().Str("component", "ActivationUC").Logger()
	return &activationUC{
		payments:  payments,
		campaigns: campaigns,
		users:     users,
		audit:     audit,
		tm:        tm,
		log:       &l,
	}
}

func (uc *activationUC) ActivateFromPayment(ctx context.Context, orderID, gatewayPaymentID string) (*model.Campaign, error) {
	var out *model.Campaign
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		c, err := uc.activateLocked(ctx, tx, orderID, gatewayPaymentID, "")
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *activationUC) ActivateManually(ctx context.Context, adminID, orderID, campaignID string) (*model.Campaign, error) {
	var out *model.Campaign
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		c, err := uc.activateLocked(ctx, tx, orderID, "", campaignID)
		out = c
		return err
	})
	uc.audit.Record(ctx, adminID, "campaign.activate_manual", campaignID, "order="+orderID, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// activateLocked runs inside a transaction: the payment row is locked
// FOR UPDATE so a concurrent delivery for the same orderID serializes here.
// expectCampaignID is non-empty only for admin-invoked activation; the
// webhook path trusts the linkage stored when the order was created.
func (uc *activationUC) activateLocked(ctx context.Context, tx repository.Tx, orderID, gatewayPaymentID, expectCampaignID string) (*model.Campaign, error) {
	p, err := uc.payments.FindByOrderID(ctx, tx, orderID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	if expectCampaignID != "" && p.CampaignID != expectCampaignID {
		return nil, domain.ErrOrderMismatch
	}
	if p.Status == model.PaymentStatusFailed {
		return nil, domain.ErrPaymentFailed
	}

	campaign, err := uc.campaigns.FindByID(ctx, tx, p.CampaignID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}

	// Idempotency guard: an already-success payment has already applied its
	// activation; return current state without re-writing ExpiresAt.
	if p.Status == model.PaymentStatusSuccess {
		uc.log.Debug().Str("order_id", orderID).Msg("duplicate activation ignored")
		return campaign, nil
	}
	if !p.Status.CanTransitionTo(model.PaymentStatusSuccess) {
		return nil, domain.ErrInvalidArgument
	}

	owner, err := uc.users.FindByID(ctx, tx, campaign.UserID)
	if err != nil {
		return nil, err
	}
	if owner.IsBlocked {
		return nil, domain.ErrUserBlocked
	}

	now := time.Now()
	expiresAt := model.PlanExpiry(p.PlanType, now)

	// Campaign update happens-before the payment update: a crash in between
	// leaves the payment stuck pending (recoverable by redelivery), never an
	// active campaign with no paid record.
	upd := repository.ActivationUpdate{
		PlanType:      p.PlanType,
		AmountPaid:    p.Amount,
		PaymentID:     p.OrderID,
		ExpiresAt:     expiresAt,
		LastPaymentAt: now,
		IsFree:        p.PlanType == model.PlanFree,
	}
	if err := uc.campaigns.Activate(ctx, tx, campaign.ID, upd); err != nil {
		return nil, err
	}
	if err := uc.payments.UpdateStatus(ctx, tx, p.ID, model.PaymentStatusSuccess, gatewayPaymentID, &now); err != nil {
		return nil, err
	}

	campaign.IsActive = true
	campaign.Status = model.CampaignStatusActive
	campaign.PlanType = p.PlanType
	campaign.AmountPaid = p.Amount
	campaign.PaymentID = p.OrderID
	campaign.ExpiresAt = expiresAt
	campaign.LastPaymentAt = &now
	campaign.IsFreeCampaign = upd.IsFree

	uc.log.Info().
		Str("order_id", orderID).
		Str("campaign_id", campaign.ID).
		Str("plan", string(p.PlanType)).
		Msg("campaign activated")
	return campaign, nil
}

func (uc *activationUC) GrantFree(ctx context.Context, adminID, campaignID string) (*model.Campaign, error) {
	var out *model.Campaign
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		campaign, err := uc.campaigns.FindByID(ctx, tx, campaignID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrCampaignNotFound
			}
			return err
		}
		owner, err := uc.users.FindByID(ctx, tx, campaign.UserID)
		if err != nil {
			return err
		}
		if owner.IsBlocked {
			return domain.ErrUserBlocked
		}

		now := time.Now()
		upd := repository.ActivationUpdate{
			PlanType:      model.PlanFree,
			AmountPaid:    0,
			PaymentID:     campaign.PaymentID, // no new payment backs a free grant
			ExpiresAt:     nil,
			LastPaymentAt: now,
			IsFree:        true,
		}
		if err := uc.campaigns.Activate(ctx, tx, campaign.ID, upd); err != nil {
			return err
		}

		campaign.IsActive = true
		campaign.Status = model.CampaignStatusActive
		campaign.PlanType = model.PlanFree
		campaign.IsFreeCampaign = true
		campaign.ExpiresAt = nil
		campaign.LastPaymentAt = &now
		out = campaign
		return nil
	})
	uc.audit.Record(ctx, adminID, "campaign.grant_free", campaignID, "", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}
