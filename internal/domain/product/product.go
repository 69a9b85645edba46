package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is the
// current list price; orders snapshot it at checkout and never read it back.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category string
}

// Repository defines the catalog reads the cart and checkout flows need.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
}
