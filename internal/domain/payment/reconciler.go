package payment

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/prodavnica/storefront/internal/domain/order"
)

// seenEventsCapacity sizes the dedup filter for the expected webhook volume
// between process restarts.
const (
	seenEventsCapacity = 1_000_000
	seenEventsFPR      = 0.001
)

// Notifier receives fire-and-forget payment events. Implementations must not
// block and must never return an error into the webhook path.
type Notifier interface {
	PaymentReceived(userID string, amountMinor int64, currency string)
}

// Reconciler consumes processor webhooks and advances order state. Delivery
// is at-least-once and unordered, so the completed transition is idempotent
// and duplicates acknowledge without effect.
type Reconciler struct {
	verifier WebhookVerifier
	orders   order.Repository
	notifier Notifier

	// seen suppresses duplicate confirmation sends across redeliveries.
	// A false positive only skips a best-effort email; the status transition
	// itself is guarded by the conditional update, not by this filter.
	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewReconciler creates a webhook Reconciler.
func NewReconciler(verifier WebhookVerifier, orders order.Repository, notifier Notifier) *Reconciler {
	return &Reconciler{
		verifier: verifier,
		orders:   orders,
		notifier: notifier,
		seen:     bloom.NewWithEstimates(seenEventsCapacity, seenEventsFPR),
	}
}

// HandleEvent verifies and applies one raw webhook delivery.
//
// It returns ErrBadSignature when verification fails; every other outcome is
// nil so the caller acknowledges receipt and the provider stops redelivering.
// Unverified payloads never mutate state regardless of their content.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := r.verifier.Verify(payload, signature)
	if err != nil {
		if errors.Is(err, ErrBadSignature) {
			return err
		}
		return errors.Wrap(ErrBadSignature, err.Error())
	}

	lg := zctx.From(ctx).With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	if event.Type != EventPaymentSucceeded {
		lg.Debug("ignoring webhook event type")
		return nil
	}

	if event.OrderID == "" {
		lg.Warn("succeeded event carries no order id", zap.String("intent_id", event.IntentID))
		return nil
	}

	o, err := r.orders.GetByID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// Acknowledge anyway: redelivering forever cannot make an
			// unknown order appear.
			lg.Warn("webhook for unknown order", zap.String("order_id", event.OrderID))
			return nil
		}
		return err
	}

	transitioned, err := r.orders.Complete(ctx, o.ID)
	if err != nil {
		return err
	}
	if !transitioned {
		lg.Debug("order already completed", zap.String("order_id", o.ID))
		return nil
	}

	if r.firstDelivery(event.ID) {
		r.notifier.PaymentReceived(o.UserID, event.AmountMinor, event.Currency)
	}

	lg.Info("order completed", zap.String("order_id", o.ID))
	return nil
}

// firstDelivery records the event id and reports whether it was unseen.
func (r *Reconciler) firstDelivery(eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.seen.TestAndAdd([]byte(eventID))
}
