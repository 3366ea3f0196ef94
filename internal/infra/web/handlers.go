package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/infra/metrics"
)

type createOrderRequest struct {
	CampaignID string `json:"campaign_id"`
	Plan       string `json:"plan"`
	Amount     int64  `json:"amount"`
	CouponCode string `json:"coupon_code"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, res, err := s.paymentUC.CreateOrder(r.Context(), id.UserID, req.CampaignID, model.PlanType(req.Plan), req.Amount, req.CouponCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.IncPayment(string(model.PaymentStatusPending))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":            true,
		"order_id":           p.OrderID,
		"amount":             p.Amount,
		"payment_session_id": res.SessionID,
	})
}

type validateCouponRequest struct {
	Code   string `json:"code"`
	Plan   string `json:"plan"`
	Amount int64  `json:"amount"`
}

// handleValidateCoupon returns HTTP 200 for every business-rule verdict;
// only auth and format problems produce 4xx.
func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "code and a positive amount are required")
		return
	}

	verdict, err := s.couponUC.Validate(r.Context(), req.Code, model.PlanType(req.Plan), req.Amount, id.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !verdict.Valid {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid":   false,
			"message": verdict.Reason,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":          true,
		"discountAmount": verdict.DiscountAmount,
		"finalAmount":    verdict.FinalAmount,
	})
}

// handleInvoice allocates the invoice number on first request and returns
// the invoice payload. Allocation is permanent: later requests always see
// the same number. Non-admin callers only reach their own orders.
func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	orderID := chi.URLParam(r, "orderID")

	requester := id.UserID
	if s.isAdmin(r.Context(), id) {
		requester = ""
	}
	p, allocated, err := s.invoiceUC.EnsureInvoiceNumber(r.Context(), orderID, requester)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if allocated {
		path := "counter"
		if p.InvoiceFallback {
			path = "fallback"
		}
		metrics.IncInvoiceNumber(path)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"order_id":       p.OrderID,
		"invoice_number": p.InvoiceNumber,
		"invoice_date":   p.InvoiceDate,
		"base_amount":    p.BaseAmount,
		"gst_rate":       p.GSTRate,
		"gst_amount":     p.GSTAmount,
		"total_amount":   p.TotalAmount,
	})
}
