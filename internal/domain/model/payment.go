package model

import (
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"        // order created; awaiting webhook
	PaymentStatusSuccess       PaymentStatus = "success"        // gateway confirmed payment
	PaymentStatusFailed        PaymentStatus = "failed"         // gateway reported failure
	PaymentStatusRefunded      PaymentStatus = "refunded"       // refund confirmed at gateway
	PaymentStatusRefundUnknown PaymentStatus = "refund_unknown" // refund call ended ambiguously; needs manual reconciliation
)

// PaymentRecord is the authoritative record of one purchase attempt.
// Rows are never deleted; status only moves forward:
// pending -> success|failed, success -> refunded|refund_unknown.
type PaymentRecord struct {
	ID               string // UUID
	OrderID          string // caller-minted, unique; the join key with the gateway
	GatewayPaymentID string // gateway-assigned payment id (from webhook), if any
	CampaignID       string
	UserID           string
	PlanType         PlanType
	Amount           int64 // rupees, integer
	Status           PaymentStatus
	CouponCode       string // normalized code applied at order creation, if any
	CreatedAt        time.Time
	CompletedAt      *time.Time
	RefundedAt       *time.Time
	RefundAmount     *int64
	RefundNote       string

	// Invoice fields, populated lazily on first invoice request.
	InvoiceNumber   string
	InvoiceDate     *time.Time
	InvoiceFallback bool // number came from the timestamp fallback path
	BaseAmount      int64
	GSTRate         int64 // percent
	GSTAmount       int64
	TotalAmount     int64
}

// CanTransitionTo reports whether moving to next is a legal forward step.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusSuccess || next == PaymentStatusFailed
	case PaymentStatusSuccess:
		return next == PaymentStatusRefunded || next == PaymentStatusRefundUnknown
	default:
		return false
	}
}

// NewOrderID mints the caller-side order identifier:
// order_<unixMillis>_<first8charsOfCampaignID>. It embeds a timestamp so
// retried checkouts for the same campaign never collide.
func NewOrderID(campaignID string, now time.Time) string {
	frag := campaignID
	if len(frag) > 8 {
		frag = frag[:8]
	}
	return fmt.Sprintf("order_%d_%s", now.UnixMilli(), frag)
}
