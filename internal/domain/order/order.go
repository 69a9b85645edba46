package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Only pending -> completed is modeled;
// completed is terminal and a pending order stays payable indefinitely.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Sentinel errors for checkout and lookups.
var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNotFound  = errors.New("order not found")
)

// Order is an immutable record of a checkout. Total is fixed from line-item
// snapshots at creation and never recomputed from live product prices.
// PaymentIntentID bridges to the payment processor's namespace and is set at
// most once.
type Order struct {
	ID              string
	UserID          string
	Total           decimal.Decimal
	Status          Status
	PaymentIntentID string
	CreatedAt       time.Time
}

// Item is a price-snapshot line belonging to an order. Never mutated.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// WithItems pairs an order with its lines for listing.
type WithItems struct {
	Order Order
	Items []Item
}

// CheckoutLine is a cart row as read inside the checkout transaction, with
// the product price captured under the same snapshot.
type CheckoutLine struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// BuildFunc converts the locked cart lines into the order and item rows to
// persist. Returning an error aborts the transaction.
type BuildFunc func(lines []CheckoutLine) (*Order, []Item, error)

// Repository defines persistence for orders. CreateFromCart runs the whole
// checkout atomically: it locks and reads the user's cart lines, invokes
// build, then inserts the order and its items and clears the cart in the
// same transaction.
type Repository interface {
	CreateFromCart(ctx context.Context, userID string, build BuildFunc) (*Order, []Item, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]WithItems, error)

	// ClaimPaymentIntent sets the order's payment intent id only when none is
	// set yet, reporting whether this call won the claim.
	ClaimPaymentIntent(ctx context.Context, orderID, intentID string) (bool, error)

	// Complete transitions the order to completed, reporting whether this
	// call performed the transition. Re-applying is a no-op, not an error.
	Complete(ctx context.Context, orderID string) (bool, error)
}
