package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when updating or removing a line the user's
// cart does not contain.
var ErrItemNotFound = errors.New("cart item not found")

// InvalidQuantityError indicates a requested quantity below one.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Quantity)
}

// Line is a cart entry joined with the owning product's current name and
// price. A user holds at most one line per product.
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Repository defines persistence for per-user cart lines.
type Repository interface {
	// List returns the user's cart lines with current product prices.
	List(ctx context.Context, userID string) ([]Line, error)
	// Upsert adds a line or, when the product is already carted, increments
	// its quantity by qty. Returns the resulting line.
	Upsert(ctx context.Context, userID, productID string, qty int) (*Line, error)
	// SetQuantity replaces the quantity of an existing line.
	// Returns ErrItemNotFound when the line does not exist.
	SetQuantity(ctx context.Context, userID, productID string, qty int) (*Line, error)
	// Remove deletes a line. Returns ErrItemNotFound when absent.
	Remove(ctx context.Context, userID, productID string) error
}
