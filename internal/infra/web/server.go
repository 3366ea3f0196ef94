package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photoframe-saas/internal/config"
	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/ports/repository"
	"photoframe-saas/internal/infra/logging"
	"photoframe-saas/internal/usecase"
)

type Server struct {
	paymentUC  usecase.PaymentUseCase
	activation usecase.ActivationUseCase
	couponUC   usecase.CouponUseCase
	invoiceUC  usecase.InvoiceUseCase
	webhookUC  usecase.WebhookUseCase
	users      repository.UserRepository
	auth       *AuthManager

	webhookSecret string
	adminEmail    string
	devMode       bool
	log           *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	paymentUC usecase.PaymentUseCase,
	activation usecase.ActivationUseCase,
	couponUC usecase.CouponUseCase,
	invoiceUC usecase.InvoiceUseCase,
	webhookUC usecase.WebhookUseCase,
	users repository.UserRepository,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "Web").Logger()
	return &Server{
		paymentUC:     paymentUC,
		activation:    activation,
		couponUC:      couponUC,
		invoiceUC:     invoiceUC,
		webhookUC:     webhookUC,
		users:         users,
		auth:          NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SessionTTL),
		webhookSecret: cfg.Gateway.WebhookSecret,
		adminEmail:    cfg.Admin.Email,
		devMode:       cfg.Runtime.Dev,
		log:           &l,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.traceID)
	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Signature-verified, not session-authenticated.
	r.Post("/webhook", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/orders", s.handleCreateOrder)
			r.Post("/coupons/validate", s.handleValidateCoupon)
			r.Get("/payments/{orderID}/invoice", s.handleInvoice)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/campaigns/{campaignID}/activate", s.handleAdminActivate)
			r.Post("/campaigns/{campaignID}/grant-free", s.handleAdminGrantFree)
			r.Post("/payments/{orderID}/refund", s.handleAdminRefund)
			r.Post("/coupons", s.handleAdminCreateCoupon)
		})
	})

	return r
}

func (s *Server) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.With(r.Context(), s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}

// ===== response helpers =====

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": msg})
}

// writeDomainError maps domain sentinels onto the HTTP taxonomy. Gateway
// detail is surfaced but credentials and stack traces never are.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUserBlocked):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrCampaignNotFound), errors.Is(err, domain.ErrCouponNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyRefunded), errors.Is(err, domain.ErrOrderMismatch),
		errors.Is(err, domain.ErrPaymentFailed), errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrRefundUnknown):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrGateway):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
