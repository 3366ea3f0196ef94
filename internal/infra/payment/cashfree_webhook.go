package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MaxWebhookSkew bounds how stale a webhook timestamp may be. Old
// deliveries are rejected to stop replay of captured payloads.
const MaxWebhookSkew = 5 * time.Minute

// WebhookEnvelope is the gateway's notification wire format. Only the
// fields this subsystem reads are modeled; the declared type tags the
// union and unknown types are ignored upstream.
type WebhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			CfPaymentID   json.Number `json:"cf_payment_id"`
			PaymentStatus string      `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

// ParseWebhook validates the envelope shape before any field access.
func ParseWebhook(body []byte) (*WebhookEnvelope, error) {
	var env WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse webhook body: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("webhook envelope missing type")
	}
	return &env, nil
}

// VerifyWebhookSignature checks the gateway signature over the raw body:
// base64(HMAC-SHA256(timestamp + body, secret)). The comparison is
// constant-time. The timestamp (unix seconds or millis) must be within
// MaxWebhookSkew of now.
func VerifyWebhookSignature(secret, timestamp string, body []byte, signature string) bool {
	if secret == "" || timestamp == "" || signature == "" {
		return false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	when := time.Unix(ts, 0)
	if ts > 1e12 { // millisecond precision
		when = time.UnixMilli(ts)
	}
	if d := time.Since(when); d > MaxWebhookSkew || d < -MaxWebhookSkew {
		return false
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp))
	h.Write(body)
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
