package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/infra/metrics"
)

type adminActivateRequest struct {
	OrderID string `json:"order_id"`
}

func (s *Server) handleAdminActivate(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	campaignID := chi.URLParam(r, "campaignID")

	var req adminActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	c, err := s.activation.ActivateManually(r.Context(), id.UserID, req.OrderID, campaignID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activationResponse(c))
}

func (s *Server) handleAdminGrantFree(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	campaignID := chi.URLParam(r, "campaignID")

	c, err := s.activation.GrantFree(r.Context(), id.UserID, campaignID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activationResponse(c))
}

func activationResponse(c *model.Campaign) map[string]interface{} {
	return map[string]interface{}{
		"success":     true,
		"campaign_id": c.ID,
		"status":      c.Status,
		"plan":        c.PlanType,
		"expires_at":  c.ExpiresAt,
	}
}

type adminRefundRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (s *Server) handleAdminRefund(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	orderID := chi.URLParam(r, "orderID")

	var req adminRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.paymentUC.Refund(r.Context(), id.UserID, orderID, req.Amount, req.Note)
	switch {
	case err == nil:
		metrics.IncRefund("success")
		metrics.IncPayment(string(model.PaymentStatusRefunded))
	case errors.Is(err, domain.ErrRefundUnknown):
		metrics.IncRefund("unknown")
		metrics.IncPayment(string(model.PaymentStatusRefundUnknown))
	case errors.Is(err, domain.ErrGateway):
		metrics.IncRefund("gateway_error")
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"order_id":      p.OrderID,
		"status":        p.Status,
		"refund_amount": p.RefundAmount,
	})
}

type adminCreateCouponRequest struct {
	Code            string   `json:"code"`
	Type            string   `json:"type"`
	Value           int64    `json:"value"`
	ApplicablePlans []string `json:"applicable_plans"`
	MinAmount       int64    `json:"min_amount"`
	UsageLimit      int64    `json:"usage_limit"`
	PerUserLimit    int64    `json:"per_user_limit"`
	ValidFrom       string   `json:"valid_from"`
	ValidUntil      string   `json:"valid_until"`
	IsActive        *bool    `json:"is_active"`
}

func (s *Server) handleAdminCreateCoupon(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req adminCreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	validFrom, err := parseOptionalDate(req.ValidFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "valid_from must be an RFC 3339 timestamp or YYYY-MM-DD date")
		return
	}
	validUntil, err := parseOptionalDate(req.ValidUntil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "valid_until must be an RFC 3339 timestamp or YYYY-MM-DD date")
		return
	}

	plans := make([]model.PlanType, 0, len(req.ApplicablePlans))
	for _, p := range req.ApplicablePlans {
		plans = append(plans, model.PlanType(p))
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	c := &model.Coupon{
		Code:            model.NormalizeCouponCode(req.Code),
		Type:            model.CouponType(req.Type),
		Value:           req.Value,
		ApplicablePlans: plans,
		MinAmount:       req.MinAmount,
		UsageLimit:      req.UsageLimit,
		PerUserLimit:    req.PerUserLimit,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		IsActive:        active,
	}
	if err := s.couponUC.Create(r.Context(), id.UserID, c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"code":    c.Code,
	})
}

// parseOptionalDate accepts RFC 3339 timestamps or bare dates; an empty
// string means the bound is open.
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
