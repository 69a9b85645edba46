package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prodavnica/storefront/internal/domain/pricing"
)

// Notifier receives fire-and-forget order events. Implementations must not
// block and must never return an error into the checkout path.
type Notifier interface {
	OrderPlaced(userID, orderID string, total decimal.Decimal)
}

// Service converts carts into durable orders.
type Service struct {
	orders   Repository
	notifier Notifier
}

// NewService creates an order Service.
func NewService(orders Repository, notifier Notifier) *Service {
	return &Service{orders: orders, notifier: notifier}
}

// Checkout atomically turns the user's current cart into a pending order with
// price-snapshot items, clearing the cart in the same transaction. An empty
// cart fails with ErrEmptyCart and creates nothing. On success a best-effort
// confirmation notification is enqueued; its failure never surfaces here.
func (s *Service) Checkout(ctx context.Context, userID string) (*Order, []Item, error) {
	o, items, err := s.orders.CreateFromCart(ctx, userID, func(lines []CheckoutLine) (*Order, []Item, error) {
		if len(lines) == 0 {
			return nil, nil, ErrEmptyCart
		}

		priced := make([]pricing.Item, len(lines))
		for i, l := range lines {
			priced[i] = pricing.Item{Price: l.Price, Quantity: l.Quantity}
		}
		totals := pricing.Summarize(priced)

		o := &Order{
			ID:     uuid.New().String(),
			UserID: userID,
			Total:  totals.Subtotal,
			Status: StatusPending,
		}
		items := make([]Item, len(lines))
		for i, l := range lines {
			items[i] = Item{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Price:     l.Price,
			}
		}
		return o, items, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifier.OrderPlaced(o.UserID, o.ID, o.Total)
	return o, items, nil
}

// ListByUser returns the user's orders with their items, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]WithItems, error) {
	return s.orders.ListByUser(ctx, userID)
}
