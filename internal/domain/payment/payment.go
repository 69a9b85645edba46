// Package payment owns the processor-facing half of checkout: obtaining at
// most one payment intent per order and reconciling asynchronous webhook
// confirmations into order state.
package payment

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// EventPaymentSucceeded is the only processor event type acted upon.
const EventPaymentSucceeded = "payment_intent.succeeded"

// ErrBadSignature is returned when a webhook payload fails signature
// verification. Such payloads must never cause a state change.
var ErrBadSignature = errors.New("webhook signature verification failed")

// ProcessorError wraps a failed call to the external payment processor.
// It is surfaced to the caller without retry.
type ProcessorError struct {
	Op  string
	Err error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("payment processor: %s: %v", e.Op, e.Err)
}

func (e *ProcessorError) Unwrap() error { return e.Err }

// Intent is the local view of a processor-side payment intent. The order row
// remains the source of truth for whether one exists.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// CreateIntentRequest carries everything the processor needs to open an
// intent. AmountMinor is in the currency's minor units; OrderID travels in
// intent metadata so the webhook can find its way back.
type CreateIntentRequest struct {
	AmountMinor int64
	Currency    string
	OrderID     string
}

// Processor is the external payment provider surface used by the intent
// manager.
type Processor interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string) error
}

// Event is a verified webhook notification. OrderID is extracted from the
// intent metadata set at creation time and may be empty for foreign events.
type Event struct {
	ID          string
	Type        string
	IntentID    string
	OrderID     string
	AmountMinor int64
	Currency    string
}

// WebhookVerifier authenticates a raw webhook payload against its signature
// header and decodes it. Implementations return ErrBadSignature (possibly
// wrapped) on any verification failure.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (*Event, error)
}
