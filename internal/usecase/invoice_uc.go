// File: internal/usecase/invoice_uc.go
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
var _ InvoiceUseCase = (*invoiceUC)(nil)

type InvoiceUseCase interface {
	// EnsureInvoiceNumber returns the payment with its invoice number,
	// allocating one on first request. Allocation is lazy but permanent: a
	// payment that already carries a number is returned untouched, with
	// allocated=false. A non-empty requesterID restricts the call to the
	// payment's owner; admin callers pass "".
	EnsureInvoiceNumber(ctx context.Context, orderID, requesterID string) (p *model.PaymentRecord, allocated bool, err error)
}

type invoiceUC struct {
	payments repository.PaymentRepository
	counter  repository.InvoiceCounterRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewInvoiceUseCase(
	payments repository.PaymentRepository,
	counter repository.InvoiceCounterRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *invoiceUC {
	l := logger.With().Str("component", "InvoiceUC").Logger()
	return &invoiceUC{payments: payments, counter: counter, tm: tm, log: &l}
}

func (uc *invoiceUC) EnsureInvoiceNumber(ctx context.Context, orderID, requesterID string) (*model.PaymentRecord, bool, error) {
	var out *model.PaymentRecord
	var allocated bool
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := uc.payments.FindByOrderID(ctx, tx, orderID)
		if err != nil {
			if err == domain.ErrNotFound {
				return domain.ErrPaymentNotFound
			}
			return err
		}
		if requesterID != "" && p.UserID != requesterID {
			return domain.ErrForbidden
		}
		if p.Status != model.PaymentStatusSuccess && p.Status != model.PaymentStatusRefunded {
			return domain.ErrInvalidArgument
		}
		if p.InvoiceNumber != "" {
			out = p
			return nil
		}

		n, err := uc.counter.NextNumber(ctx, tx)
		if err != nil {
			return err
		}
		now := time.Now()
		number := model.FormatInvoiceNumber(n)
		if err := uc.payments.SetInvoice(ctx, tx, p.ID, number, now, false); err != nil {
			return err
		}
		p.InvoiceNumber = number
		p.InvoiceDate = &now
		out = p
		allocated = true
		return nil
	})
	if err == nil {
		return out, allocated, nil
	}
	switch err {
	case domain.ErrPaymentNotFound, domain.ErrForbidden, domain.ErrInvalidArgument:
		return nil, false, err
	}

	// Counter transaction failed (store contention or unavailability).
	// Degrade to a timestamp-derived number rather than failing the invoice;
	// the TS marker makes the fallback visible in stored data.
	uc.log.Error().Err(err).Str("order_id", orderID).Msg("invoice counter failed, using timestamp fallback")
	p, ferr := uc.payments.FindByOrderID(ctx, nil, orderID)
	if ferr != nil {
		return nil, false, err
	}
	if requesterID != "" && p.UserID != requesterID {
		return nil, false, domain.ErrForbidden
	}
	if p.InvoiceNumber != "" {
		return p, false, nil
	}
	now := time.Now()
	number := model.FormatFallbackInvoiceNumber(now.UnixMilli())
	if serr := uc.payments.SetInvoice(ctx, nil, p.ID, number, now, true); serr != nil {
		return nil, false, serr
	}
	p.InvoiceNumber = number
	p.InvoiceDate = &now
	p.InvoiceFallback = true
	return p, true, nil
}
