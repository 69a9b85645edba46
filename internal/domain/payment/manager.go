package payment

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/prodavnica/storefront/internal/domain/order"
	"github.com/prodavnica/storefront/internal/domain/pricing"
)

// Manager creates or reuses the processor-side payment intent for an order.
type Manager struct {
	orders    order.Repository
	processor Processor
}

// NewManager creates a payment intent Manager.
func NewManager(orders order.Repository, processor Processor) *Manager {
	return &Manager{orders: orders, processor: processor}
}

// CreateOrReuse returns the client secret for the order's payment intent,
// creating one at the processor when none exists yet.
//
// The claim on the order row is a conditional update (set only while unset),
// so two racing first-time calls create at most one durable intent: the loser
// cancels its freshly created intent and returns the winner's secret.
func (m *Manager) CreateOrReuse(ctx context.Context, orderID, currency string) (string, error) {
	o, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	// Idempotent read: an intent already exists, hand back its secret.
	if o.PaymentIntentID != "" {
		return m.retrieveSecret(ctx, o.PaymentIntentID)
	}

	amount, err := pricing.MinorUnits(o.Total, currency)
	if err != nil {
		return "", err
	}

	intent, err := m.processor.CreateIntent(ctx, CreateIntentRequest{
		AmountMinor: amount,
		Currency:    currency,
		OrderID:     o.ID,
	})
	if err != nil {
		return "", err
	}

	claimed, err := m.orders.ClaimPaymentIntent(ctx, o.ID, intent.ID)
	if err != nil {
		return "", err
	}
	if claimed {
		return intent.ClientSecret, nil
	}

	// Lost the claim race: another request stored its intent first.
	// Cancel ours so the processor never holds two collectible intents,
	// then return the winner's secret.
	if cancelErr := m.processor.CancelIntent(ctx, intent.ID); cancelErr != nil {
		zctx.From(ctx).Warn("cancel orphaned payment intent",
			zap.String("intent_id", intent.ID),
			zap.String("order_id", o.ID),
			zap.Error(cancelErr),
		)
	}

	o, err = m.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	return m.retrieveSecret(ctx, o.PaymentIntentID)
}

func (m *Manager) retrieveSecret(ctx context.Context, intentID string) (string, error) {
	intent, err := m.processor.GetIntent(ctx, intentID)
	if err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}
