// Package stripe adapts the Stripe SDK to the payment domain interfaces.
package stripe

import (
	"context"
	"encoding/json"

	stripesdk "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/go-faster/errors"

	"github.com/prodavnica/storefront/internal/domain/payment"
)

// metadataOrderID is the intent metadata key carrying our order identifier
// back through webhook events.
const metadataOrderID = "order_id"

// Compile-time checks against the domain interfaces.
var (
	_ payment.Processor       = (*Client)(nil)
	_ payment.WebhookVerifier = (*Client)(nil)
)

// Client wraps a Stripe API client plus the webhook signing secret. It is
// constructed explicitly and injected; no package-global key is set.
type Client struct {
	api           *client.API
	webhookSecret string
}

// New creates a Client from the account secret key and webhook signing
// secret. Neither value is ever logged.
func New(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// CreateIntent opens a payment intent for the given minor-unit amount,
// stamping the order id into intent metadata.
func (c *Client) CreateIntent(ctx context.Context, req payment.CreateIntentRequest) (*payment.Intent, error) {
	params := &stripesdk.PaymentIntentParams{
		Params:   stripesdk.Params{Context: ctx},
		Amount:   stripesdk.Int64(req.AmountMinor),
		Currency: stripesdk.String(req.Currency),
	}
	params.AddMetadata(metadataOrderID, req.OrderID)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, &payment.ProcessorError{Op: "create intent", Err: err}
	}
	return mapIntent(pi), nil
}

// GetIntent retrieves an existing payment intent.
func (c *Client) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	params := &stripesdk.PaymentIntentParams{
		Params: stripesdk.Params{Context: ctx},
	}
	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, &payment.ProcessorError{Op: "get intent", Err: err}
	}
	return mapIntent(pi), nil
}

// CancelIntent cancels an intent that lost the per-order claim race.
func (c *Client) CancelIntent(ctx context.Context, id string) error {
	params := &stripesdk.PaymentIntentCancelParams{
		Params: stripesdk.Params{Context: ctx},
	}
	if _, err := c.api.PaymentIntents.Cancel(id, params); err != nil {
		return &payment.ProcessorError{Op: "cancel intent", Err: err}
	}
	return nil
}

// Verify checks the Stripe-Signature header over the raw payload and decodes
// the event. Succeeded events carry the intent's amount, currency, and the
// order id from metadata; other event types are returned with type and id
// only, for the caller to ignore.
func (c *Client) Verify(payload []byte, signature string) (*payment.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Wrap(payment.ErrBadSignature, err.Error())
	}

	out := &payment.Event{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if out.Type != payment.EventPaymentSucceeded {
		return out, nil
	}

	var pi stripesdk.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, errors.Wrap(err, "decode payment intent")
	}
	out.IntentID = pi.ID
	out.OrderID = pi.Metadata[metadataOrderID]
	out.AmountMinor = pi.Amount
	out.Currency = string(pi.Currency)
	return out, nil
}

func mapIntent(pi *stripesdk.PaymentIntent) *payment.Intent {
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}
