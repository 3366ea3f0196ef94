//go:build !integration

package web_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"photoframe-saas/internal/config"
	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/adapter"
	"photoframe-saas/internal/domain/ports/repository"
	"photoframe-saas/internal/infra/web"
	"photoframe-saas/internal/usecase"
)

const testWebhookSecret = "whsec_test"

// ---- Stub use cases ----

type stubPaymentUC struct {
	CreateOrderFunc func(ctx context.Context, userID, campaignID string, plan model.PlanType, amount int64, couponCode string) (*model.PaymentRecord, adapter.OrderResult, error)
	RefundFunc      func(ctx context.Context, adminID, orderID string, amount int64, note string) (*model.PaymentRecord, error)
}

var _ usecase.PaymentUseCase = (*stubPaymentUC)(nil)

func (s *stubPaymentUC) CreateOrder(ctx context.Context, userID, campaignID string, plan model.PlanType, amount int64, couponCode string) (*model.PaymentRecord, adapter.OrderResult, error) {
	if s.CreateOrderFunc != nil {
		return s.CreateOrderFunc(ctx, userID, campaignID, plan, amount, couponCode)
	}
	return &model.PaymentRecord{OrderID: "order_1_stub", Amount: amount, Status: model.PaymentStatusPending},
		adapter.OrderResult{SessionID: "sess-1"}, nil
}

func (s *stubPaymentUC) Refund(ctx context.Context, adminID, orderID string, amount int64, note string) (*model.PaymentRecord, error) {
	if s.RefundFunc != nil {
		return s.RefundFunc(ctx, adminID, orderID, amount, note)
	}
	refunded := amount
	return &model.PaymentRecord{OrderID: orderID, Status: model.PaymentStatusRefunded, RefundAmount: &refunded}, nil
}

func (s *stubPaymentUC) MarkFailed(ctx context.Context, orderID, gatewayPaymentID string) error {
	return nil
}

func (s *stubPaymentUC) RedeemCoupon(ctx context.Context, code, userID string) error { return nil }

type stubActivationUC struct{}

var _ usecase.ActivationUseCase = (*stubActivationUC)(nil)

func (s *stubActivationUC) ActivateFromPayment(ctx context.Context, orderID, gatewayPaymentID string) (*model.Campaign, error) {
	return &model.Campaign{ID: "camp-1", IsActive: true, Status: model.CampaignStatusActive}, nil
}

func (s *stubActivationUC) ActivateManually(ctx context.Context, adminID, orderID, campaignID string) (*model.Campaign, error) {
	return &model.Campaign{ID: campaignID, IsActive: true, Status: model.CampaignStatusActive}, nil
}

func (s *stubActivationUC) GrantFree(ctx context.Context, adminID, campaignID string) (*model.Campaign, error) {
	return &model.Campaign{ID: campaignID, IsActive: true, IsFreeCampaign: true, Status: model.CampaignStatusActive}, nil
}

type stubCouponUC struct {
	verdict usecase.CouponVerdict
}

var _ usecase.CouponUseCase = (*stubCouponUC)(nil)

func (s *stubCouponUC) Validate(ctx context.Context, code string, plan model.PlanType, amount int64, userID string) (usecase.CouponVerdict, error) {
	return s.verdict, nil
}

func (s *stubCouponUC) Create(ctx context.Context, adminID string, c *model.Coupon) error {
	return nil
}

type stubInvoiceUC struct {
	owner        string // payment owner; a mismatched non-empty requester is refused
	gotRequester string
}

var _ usecase.InvoiceUseCase = (*stubInvoiceUC)(nil)

func (s *stubInvoiceUC) EnsureInvoiceNumber(ctx context.Context, orderID, requesterID string) (*model.PaymentRecord, bool, error) {
	s.gotRequester = requesterID
	if s.owner != "" && requesterID != "" && requesterID != s.owner {
		return nil, false, domain.ErrForbidden
	}
	now := time.Now()
	return &model.PaymentRecord{
		OrderID: orderID, InvoiceNumber: "PHR-000042", InvoiceDate: &now,
		BaseAmount: 423, GSTRate: 18, GSTAmount: 76, TotalAmount: 499,
	}, true, nil
}

type stubWebhookUC struct {
	ProcessFunc func(ctx context.Context, webhookType, orderID, gatewayPaymentID string) (usecase.WebhookResult, error)

	Calls int
}

var _ usecase.WebhookUseCase = (*stubWebhookUC)(nil)

func (s *stubWebhookUC) Process(ctx context.Context, webhookType, orderID, gatewayPaymentID string) (usecase.WebhookResult, error) {
	s.Calls++
	if s.ProcessFunc != nil {
		return s.ProcessFunc(ctx, webhookType, orderID, gatewayPaymentID)
	}
	return usecase.WebhookResult{Outcome: usecase.OutcomeActivated, Amount: 499}, nil
}

type stubUserRepo struct {
	users map[string]*model.User
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func (s *stubUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error { return nil }

func (s *stubUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- Harness ----

type harness struct {
	srv       http.Handler
	auth      *web.AuthManager
	webhookUC *stubWebhookUC
	couponUC  *stubCouponUC
	invoiceUC *stubInvoiceUC
}

func newHarness() *harness {
	cfg := &config.Config{}
	cfg.Gateway.WebhookSecret = testWebhookSecret
	cfg.Admin.JWTSecret = "jwt-test-secret"
	cfg.Admin.SessionTTL = time.Hour
	cfg.Admin.Email = "boss@example.com"

	logger := zerolog.New(io.Discard)
	wuc := &stubWebhookUC{}
	cuc := &stubCouponUC{verdict: usecase.CouponVerdict{Valid: true, DiscountAmount: 100, FinalAmount: 400}}
	users := &stubUserRepo{users: map[string]*model.User{
		"admin-db": {ID: "admin-db", Email: "dbadmin@example.com", IsAdmin: true},
		"user-1":   {ID: "user-1", Email: "user@example.com"},
	}}
	iuc := &stubInvoiceUC{owner: "user-1"}
	s := web.NewServer(cfg, &stubPaymentUC{}, &stubActivationUC{}, cuc, iuc, wuc, users, &logger)
	return &harness{
		srv:       s.Router(),
		auth:      web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SessionTTL),
		webhookUC: wuc,
		couponUC:  cuc,
		invoiceUC: iuc,
	}
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

func (h *harness) token(t *testing.T, userID, email, role string) string {
	t.Helper()
	tok, err := h.auth.Mint(userID, email, role)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func signBody(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *harness, body []byte, signed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	ts := fmt.Sprintf("%d", time.Now().Unix())
	req.Header.Set("x-webhook-timestamp", ts)
	if signed {
		req.Header.Set("x-webhook-signature", signBody(ts, body))
	} else {
		req.Header.Set("x-webhook-signature", "bm90LWEtc2lnbmF0dXJl")
	}
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

// ---- Webhook endpoint ----

func TestWebhookEndpoint(t *testing.T) {
	validBody := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"order_1_abc"},"payment":{"cf_payment_id":11,"payment_status":"SUCCESS"}}}`)

	t.Run("verified delivery is acknowledged", func(t *testing.T) {
		h := newHarness()
		rec := postWebhook(h, validBody, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		var resp map[string]interface{}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["success"] != true {
			t.Errorf("body %s", rec.Body.String())
		}
		if h.webhookUC.Calls != 1 {
			t.Errorf("processed %d times", h.webhookUC.Calls)
		}
	})

	t.Run("internal failure still returns 200", func(t *testing.T) {
		h := newHarness()
		h.webhookUC.ProcessFunc = func(ctx context.Context, webhookType, orderID, gatewayPaymentID string) (usecase.WebhookResult, error) {
			return usecase.WebhookResult{Outcome: usecase.OutcomeError}, errors.New("db down")
		}
		rec := postWebhook(h, validBody, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: a verified delivery must always be acked", rec.Code)
		}
	})

	t.Run("bad signature is rejected with 401", func(t *testing.T) {
		h := newHarness()
		rec := postWebhook(h, validBody, false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
		if h.webhookUC.Calls != 0 {
			t.Error("unverified delivery reached processing")
		}
	})

	t.Run("malformed but signed payload is rejected with 400", func(t *testing.T) {
		h := newHarness()
		rec := postWebhook(h, []byte(`{"data":`), true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

// ---- Session auth ----

func TestSessionAuth(t *testing.T) {
	t.Run("requests without a token are rejected", func(t *testing.T) {
		h := newHarness()
		rec := h.do(t, http.MethodPost, "/api/v1/orders", "", map[string]interface{}{"campaign_id": "camp-1", "plan": "month", "amount": 499})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})

	t.Run("a user token opens the user surface", func(t *testing.T) {
		h := newHarness()
		tok := h.token(t, "user-1", "user@example.com", "user")
		rec := h.do(t, http.MethodPost, "/api/v1/orders", tok, map[string]interface{}{"campaign_id": "camp-1", "plan": "month", "amount": 499})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("a plain user cannot reach admin routes", func(t *testing.T) {
		h := newHarness()
		tok := h.token(t, "user-1", "user@example.com", "user")
		rec := h.do(t, http.MethodPost, "/api/v1/admin/payments/order_1/refund", tok, map[string]interface{}{})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("admin role, admin flag and configured email all grant access", func(t *testing.T) {
		h := newHarness()
		for name, tok := range map[string]string{
			"role claim":       h.token(t, "anyone", "x@example.com", "admin"),
			"db admin flag":    h.token(t, "admin-db", "dbadmin@example.com", "user"),
			"configured email": h.token(t, "anyone", "boss@example.com", "user"),
		} {
			rec := h.do(t, http.MethodPost, "/api/v1/admin/campaigns/camp-1/grant-free", tok, nil)
			if rec.Code != http.StatusOK {
				t.Errorf("%s: status %d, want 200: %s", name, rec.Code, rec.Body.String())
			}
		}
	})
}

// ---- Coupon validation endpoint ----

func TestValidateCouponEndpoint(t *testing.T) {
	t.Run("business-rule rejection is a 200 with valid=false", func(t *testing.T) {
		h := newHarness()
		h.couponUC.verdict = usecase.CouponVerdict{Valid: false, Reason: "coupon has expired"}
		tok := h.token(t, "user-1", "user@example.com", "user")

		rec := h.do(t, http.MethodPost, "/api/v1/coupons/validate", tok, map[string]interface{}{"code": "OLD", "plan": "month", "amount": 499})
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		var resp struct {
			Valid   bool   `json:"valid"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Valid || resp.Message != "coupon has expired" {
			t.Errorf("body %s", rec.Body.String())
		}
	})

	t.Run("valid coupon returns the discount figures", func(t *testing.T) {
		h := newHarness()
		tok := h.token(t, "user-1", "user@example.com", "user")
		rec := h.do(t, http.MethodPost, "/api/v1/coupons/validate", tok, map[string]interface{}{"code": "SAVE20", "plan": "month", "amount": 500})
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		var resp struct {
			Valid          bool  `json:"valid"`
			DiscountAmount int64 `json:"discountAmount"`
			FinalAmount    int64 `json:"finalAmount"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if !resp.Valid || resp.DiscountAmount != 100 || resp.FinalAmount != 400 {
			t.Errorf("body %s", rec.Body.String())
		}
	})

	t.Run("missing code is a format error", func(t *testing.T) {
		h := newHarness()
		tok := h.token(t, "user-1", "user@example.com", "user")
		rec := h.do(t, http.MethodPost, "/api/v1/coupons/validate", tok, map[string]interface{}{"plan": "month", "amount": 499})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

// ---- Invoice endpoint ----

func TestInvoiceEndpoint(t *testing.T) {
	t.Run("owner fetches their invoice", func(t *testing.T) {
		h := newHarness()
		tok := h.token(t, "user-1", "user@example.com", "user")
		rec := h.do(t, http.MethodGet, "/api/v1/payments/order_1_abc/invoice", tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			InvoiceNumber string `json:"invoice_number"`
			BaseAmount    int64  `json:"base_amount"`
			GSTAmount     int64  `json:"gst_amount"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.InvoiceNumber != "PHR-000042" || resp.BaseAmount != 423 || resp.GSTAmount != 76 {
			t.Errorf("body %s", rec.Body.String())
		}
		if h.invoiceUC.gotRequester != "user-1" {
			t.Errorf("requester %q, want the caller's own id", h.invoiceUC.gotRequester)
		}
	})

	t.Run("another user's order is forbidden", func(t *testing.T) {
		h := newHarness()
		tok := h.token(t, "user-2", "other@example.com", "user")
		rec := h.do(t, http.MethodGet, "/api/v1/payments/order_1_abc/invoice", tok, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admins fetch any order", func(t *testing.T) {
		h := newHarness()
		tok := h.token(t, "admin-1", "boss@example.com", "admin")
		rec := h.do(t, http.MethodGet, "/api/v1/payments/order_1_abc/invoice", tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if h.invoiceUC.gotRequester != "" {
			t.Errorf("admin calls must be unrestricted, got requester %q", h.invoiceUC.gotRequester)
		}
	})
}
