package web

import (
	"io"
	"net/http"
	"time"

	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/infra/logging"
	"photoframe-saas/internal/infra/metrics"
	"photoframe-saas/internal/infra/payment"
	"photoframe-saas/internal/usecase"
)

// handleWebhook receives gateway notifications. The contract with the
// gateway: every syntactically valid, correctly signed delivery gets a 200
// ack, even when internal processing fails, because once the signature is
// valid the gateway's retries cannot fix an internal bug, only amplify it.
// The only non-200 responses are signature (401) and format (400) rejection.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.With(r.Context(), s.log)

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		metrics.IncWebhookRejected("bad_payload")
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := r.Header.Get("x-webhook-signature")
	timestamp := r.Header.Get("x-webhook-timestamp")
	// dev mode only: signature bypass never reaches a production config,
	// LoadConfig refuses an empty webhook secret outside dev.
	if !s.devMode && !payment.VerifyWebhookSignature(s.webhookSecret, timestamp, body, signature) {
		metrics.IncWebhookRejected("bad_signature")
		log.Warn().Msg("webhook signature rejected")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	env, err := payment.ParseWebhook(body)
	if err != nil {
		metrics.IncWebhookRejected("bad_payload")
		log.Warn().Err(err).Msg("webhook payload rejected")
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	orderID := env.Data.Order.OrderID
	res, perr := s.webhookUC.Process(r.Context(), env.Type, orderID, env.Data.Payment.CfPaymentID.String())

	elapsed := time.Since(start)
	metrics.IncWebhook(env.Type, res.Outcome)
	metrics.ObserveWebhookDuration(elapsed)
	switch res.Outcome {
	case usecase.OutcomeActivated:
		metrics.IncPayment(string(model.PaymentStatusSuccess))
		metrics.AddPaymentRevenue(res.Amount)
	case usecase.OutcomeFailed:
		metrics.IncPayment(string(model.PaymentStatusFailed))
	}

	evt := log.Info()
	if perr != nil {
		evt = log.Error().Err(perr)
	}
	evt.Str("type", env.Type).
		Str("order_id", orderID).
		Str("outcome", res.Outcome).
		Dur("duration", elapsed).
		Msg("webhook processed")

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
