package repository

import (
	"context"
	"time"

	"photoframe-saas/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentRecord) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentRecord, error)
	// FindByOrderID locks the row FOR UPDATE when called inside a transaction.
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.PaymentRecord, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, gatewayPaymentID string, completedAt *time.Time) error
	MarkRefunded(ctx context.Context, tx Tx, id string, status model.PaymentStatus, refundAmount int64, refundNote string, refundedAt time.Time) error
	SetInvoice(ctx context.Context, tx Tx, id string, number string, date time.Time, fallback bool) error
}
