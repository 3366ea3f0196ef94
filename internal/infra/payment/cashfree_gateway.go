package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/ports/adapter"
)

const apiVersion = "2023-08-01"

// CashfreeGateway implements adapter.PaymentGateway using direct HTTP calls.
type CashfreeGateway struct {
	appID     string
	secretKey string
	sandbox   bool
	baseURL   string
	client    *http.Client
}

// NewCashfreeGateway creates a new direct Cashfree gateway. The base URL
// switches between sandbox and production by the sandbox flag.
func NewCashfreeGateway(appID, secretKey string, sandbox bool, timeout time.Duration) *CashfreeGateway {
	baseURL := "https://api.cashfree.com/pg"
	if sandbox {
		baseURL = "https://sandbox.cashfree.com/pg"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CashfreeGateway{
		appID:     appID,
		secretKey: secretKey,
		sandbox:   sandbox,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *CashfreeGateway) Name() string { return "cashfree" }

type cashfreeOrderResponse struct {
	OrderID          string `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	PaymentSessionID string `json:"payment_session_id"`
	Message          string `json:"message"`
}

type cashfreeRefundResponse struct {
	RefundID     string  `json:"cf_refund_id"`
	RefundStatus string  `json:"refund_status"`
	RefundAmount float64 `json:"refund_amount"`
	ProcessedAt  string  `json:"processed_at"`
	Message      string  `json:"message"`
}

// CreateOrder registers our caller-minted order id with the gateway and
// returns the checkout session data.
func (g *CashfreeGateway) CreateOrder(ctx context.Context, orderID string, amount int64, customerID string, note string) (adapter.OrderResult, error) {
	payload := map[string]interface{}{
		"order_id":       orderID,
		"order_amount":   amount,
		"order_currency": "INR",
		"order_note":     note,
		"customer_details": map[string]interface{}{
			"customer_id": customerID,
		},
	}

	var out cashfreeOrderResponse
	status, err := g.post(ctx, g.baseURL+"/orders", payload, &out)
	if err != nil {
		return adapter.OrderResult{}, fmt.Errorf("%w: create order: %v", domain.ErrGateway, err)
	}
	if status < 200 || status >= 300 {
		return adapter.OrderResult{}, fmt.Errorf("%w: create order returned %d: %s", domain.ErrGateway, status, out.Message)
	}
	return adapter.OrderResult{
		GatewayOrderID: out.OrderID,
		SessionID:      out.PaymentSessionID,
		Status:         out.OrderStatus,
	}, nil
}

// Refund requests a refund against the original order id. A transport-level
// failure returns domain.ErrRefundUnknown: the gateway may have executed the
// refund before the response was lost, so the caller must not assume failure.
func (g *CashfreeGateway) Refund(ctx context.Context, orderID string, amount int64, note string) (adapter.RefundResult, error) {
	payload := map[string]interface{}{
		"refund_amount": amount,
		"refund_id":     fmt.Sprintf("refund_%s_%d", orderID, time.Now().UnixMilli()),
		"refund_note":   note,
	}

	var out cashfreeRefundResponse
	status, err := g.post(ctx, fmt.Sprintf("%s/orders/%s/refunds", g.baseURL, orderID), payload, &out)
	if err != nil {
		return adapter.RefundResult{}, fmt.Errorf("%w: %v", domain.ErrRefundUnknown, err)
	}
	if status < 200 || status >= 300 {
		return adapter.RefundResult{}, fmt.Errorf("%w: refund returned %d: %s", domain.ErrGateway, status, out.Message)
	}

	res := adapter.RefundResult{
		RefundID:     out.RefundID,
		Status:       out.RefundStatus,
		RefundAmount: int64(out.RefundAmount),
	}
	if t, perr := time.Parse(time.RFC3339, out.ProcessedAt); perr == nil {
		res.RefundTime = t
	}
	return res, nil
}

// post sends a JSON request and decodes the JSON response into out.
// The returned error covers transport failures only; HTTP status handling is
// the caller's concern.
func (g *CashfreeGateway) post(ctx context.Context, url string, payload interface{}, out interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("x-client-id", g.appID)
	req.Header.Set("x-client-secret", g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, out); err != nil {
			return resp.StatusCode, fmt.Errorf("unmarshal response: %w, body: %s", err, string(b))
		}
	}
	return resp.StatusCode, nil
}
