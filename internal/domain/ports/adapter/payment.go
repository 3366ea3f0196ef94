package adapter

import (
	"context"
	"time"
)

// OrderResult captures the gateway's response to order creation.
type OrderResult struct {
	GatewayOrderID string // the gateway's echo of our order id
	SessionID      string // opaque token the client uses to open the checkout
	Status         string
}

// RefundResult captures a minimal, provider-agnostic result of a refund call.
type RefundResult struct {
	RefundID     string
	Status       string // provider status, e.g. PENDING / SUCCESS
	RefundAmount int64
	RefundTime   time.Time
}

// PaymentGateway is the hex port for the payment provider.
//
// Implementations must distinguish definitive gateway rejection
// (domain.ErrGateway) from transport-level ambiguity (domain.ErrRefundUnknown
// for refunds): the refund caller must never treat a timeout as failure,
// because the gateway may have executed the refund before the response was
// lost.
type PaymentGateway interface {
	Name() string

	// CreateOrder registers orderID with the gateway and returns checkout
	// session data. The orderID is the join key for all later webhooks.
	CreateOrder(ctx context.Context, orderID string, amount int64, customerID string, note string) (OrderResult, error)

	// Refund refunds amount against the original orderID (the gateway only
	// recognizes the order id it was given at creation time).
	Refund(ctx context.Context, orderID string, amount int64, note string) (RefundResult, error)
}
