package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/prodavnica/storefront/internal/domain/pricing"
	"github.com/prodavnica/storefront/internal/domain/product"
)

// View is a cart with its computed totals, ready for presentation.
type View struct {
	Lines     []Line
	Total     decimal.Decimal
	ItemCount int
}

// Service validates cart mutations and resolves totals.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// View returns the user's cart lines together with subtotal and item count.
func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	lines, err := s.carts.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}

	items := make([]pricing.Item, len(lines))
	for i, l := range lines {
		items[i] = pricing.Item{Price: l.Price, Quantity: l.Quantity}
	}
	totals := pricing.Summarize(items)

	return &View{
		Lines:     lines,
		Total:     totals.Subtotal,
		ItemCount: totals.ItemCount,
	}, nil
}

// Add puts qty units of a product into the cart, merging with an existing
// line for the same product. The product must exist.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) (*Line, error) {
	if qty < 1 {
		return nil, &InvalidQuantityError{Quantity: qty}
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.carts.Upsert(ctx, userID, productID, qty)
}

// Update replaces the quantity of an existing cart line.
func (s *Service) Update(ctx context.Context, userID, productID string, qty int) (*Line, error) {
	if qty < 1 {
		return nil, &InvalidQuantityError{Quantity: qty}
	}
	return s.carts.SetQuantity(ctx, userID, productID, qty)
}

// Remove deletes a cart line.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	return s.carts.Remove(ctx, userID, productID)
}
