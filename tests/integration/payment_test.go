//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

// placeOrder makes a fresh pending order for payment tests.
func placeOrder(t *testing.T) orderResponse {
	t.Helper()

	clearCart(t)
	add := doJSON(t, http.MethodPost, "/api/cart",
		addCartItemRequest{ProductID: "p-mug", Quantity: 2}, testAPIKey)
	add.Body.Close()

	resp := doRequest(t, http.MethodPost, "/api/orders", nil, testAPIKey)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[orderResponse](t, resp)
}

func orderStatus(t *testing.T, orderID string) string {
	t.Helper()

	resp := doGetWithAuth(t, "/api/orders", testAPIKey)
	defer resp.Body.Close()
	for _, o := range decodeJSON[[]orderResponse](t, resp) {
		if o.ID == orderID {
			return o.Status
		}
	}
	t.Fatalf("order %s not found", orderID)
	return ""
}

func TestPaymentIntent_NoAuth(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/payment-intents",
		createIntentRequest{OrderID: "whatever"}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPaymentIntent_UnknownOrder(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/payment-intents",
		createIntentRequest{OrderID: "00000000-0000-0000-0000-000000000000"}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPaymentIntent_MissingOrderID(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/payment-intents",
		createIntentRequest{}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	o := placeOrder(t)

	payload := fmt.Sprintf(`{"id":"evt_bad","type":"payment_intent.succeeded","data":{"object":{"metadata":{"order_id":%q}}}}`, o.ID)
	req := doRequestWithSignature(t, payload, "t=1,v1=deadbeef")
	defer req.Body.Close()

	if req.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", req.StatusCode)
	}

	// An unverified payload must not advance the order.
	if status := orderStatus(t, o.ID); status != "pending" {
		t.Errorf("status after bad signature: got %q, want pending", status)
	}
}

func TestWebhook_CompletesOrder(t *testing.T) {
	o := placeOrder(t)

	resp := postWebhook(t, "evt_complete_"+o.ID, o.ID, 2550)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	ack := decodeJSON[webhookResponse](t, resp)
	if !ack.Received {
		t.Error("expected received=true")
	}

	if status := orderStatus(t, o.ID); status != "completed" {
		t.Errorf("status: got %q, want completed", status)
	}
}

func TestWebhook_DuplicateDeliveryIdempotent(t *testing.T) {
	o := placeOrder(t)
	eventID := "evt_dup_" + o.ID

	for i := 0; i < 3; i++ {
		resp := postWebhook(t, eventID, o.ID, 2550)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	if status := orderStatus(t, o.ID); status != "completed" {
		t.Errorf("status: got %q, want completed", status)
	}
}

func TestWebhook_UnknownOrderAcknowledged(t *testing.T) {
	resp := postWebhook(t, "evt_unknown_order", "00000000-0000-0000-0000-000000000000", 100)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWebhook_IgnoredEventType(t *testing.T) {
	payload := `{"id":"evt_other","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_x"}}}`
	resp := doRequestWithSignature(t, payload, signWebhook([]byte(payload), testWebhookSecret, time.Now()))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func doRequestWithSignature(t *testing.T, payload, signature string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/payment-webhook",
		strings.NewReader(payload))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("POST webhook: %v", err)
	}
	return resp
}
