package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/prodavnica/storefront/internal/domain/payment"
)

// maxWebhookBody caps webhook payload reads; processor events are small.
const maxWebhookBody = 1 << 20

type createIntentRequest struct {
	OrderID  string `json:"orderId"`
	Currency string `json:"currency"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// CreatePaymentIntent returns the client secret for the order's payment
// intent, creating one at the processor on first call. Repeat and racing
// calls converge on a single intent.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}
	if req.Currency == "" {
		req.Currency = "eur"
	}

	secret, err := h.intents.CreateOrReuse(r.Context(), req.OrderID, req.Currency)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createIntentResponse{ClientSecret: secret})
}

// PaymentWebhook consumes signed processor events. The raw body is passed to
// verification untouched; a verified event is always acknowledged with 200 so
// the provider stops redelivering.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	err = h.webhook.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			writeError(w, http.StatusBadRequest, "signature verification failed")
			return
		}
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{Received: true})
}
