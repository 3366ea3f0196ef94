package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, gateway_payment_id, campaign_id, user_id, plan_type, amount, status, coupon_code, created_at, completed_at, refunded_at, refund_amount, refund_note, invoice_number, invoice_date, invoice_fallback, base_amount, gst_rate, gst_amount, total_amount`

func scanPayment(row pgx.Row) (*model.PaymentRecord, error) {
	p := &model.PaymentRecord{}
	var gatewayPaymentID, couponCode, refundNote, invoiceNumber *string
	err := row.Scan(
		&p.ID, &p.OrderID, &gatewayPaymentID, &p.CampaignID, &p.UserID, &p.PlanType,
		&p.Amount, &p.Status, &couponCode, &p.CreatedAt, &p.CompletedAt, &p.RefundedAt,
		&p.RefundAmount, &refundNote, &invoiceNumber, &p.InvoiceDate,
		&p.InvoiceFallback, &p.BaseAmount, &p.GSTRate, &p.GSTAmount, &p.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if gatewayPaymentID != nil {
		p.GatewayPaymentID = *gatewayPaymentID
	}
	if couponCode != nil {
		p.CouponCode = *couponCode
	}
	if refundNote != nil {
		p.RefundNote = *refundNote
	}
	if invoiceNumber != nil {
		p.InvoiceNumber = *invoiceNumber
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11,$12,$13,NULLIF($14,''),NULLIF($15,''),$16,$17,$18,$19,$20,$21)
ON CONFLICT (order_id) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrderID, p.GatewayPaymentID, p.CampaignID, p.UserID, p.PlanType,
		p.Amount, p.Status, p.CouponCode, p.CreatedAt, p.CompletedAt, p.RefundedAt,
		p.RefundAmount, p.RefundNote, p.InvoiceNumber, p.InvoiceDate,
		p.InvoiceFallback, p.BaseAmount, p.GSTRate, p.GSTAmount, p.TotalAmount,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRecord, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentRecord, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string, completedAt *time.Time) error {
	const q = `
UPDATE payments
   SET status=$2,
       gateway_payment_id=COALESCE(NULLIF($3,''), gateway_payment_id),
       completed_at=COALESCE($4, completed_at)
 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, status, gatewayPaymentID, completedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refundAmount int64, refundNote string, refundedAt time.Time) error {
	const q = `
UPDATE payments
   SET status=$2, refund_amount=$3, refund_note=NULLIF($4,''), refunded_at=$5
 WHERE id=$1 AND status='success';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, status, refundAmount, refundNote, refundedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyRefunded
	}
	return nil
}

func (r *paymentRepo) SetInvoice(ctx context.Context, tx repository.Tx, id string, number string, date time.Time, fallback bool) error {
	// Guarded by invoice_number IS NULL: a number, once written, is permanent.
	const q = `
UPDATE payments
   SET invoice_number=$2, invoice_date=$3, invoice_fallback=$4
 WHERE id=$1 AND invoice_number IS NULL;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, number, date, fallback)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}
