package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodavnica/storefront/internal/domain/cart"
)

const (
	listCartSQL = `SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC`

	upsertCartSQL = `INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity`

	setCartQuantitySQL = `UPDATE cart_items SET quantity = $3
		WHERE user_id = $1 AND product_id = $2
		RETURNING quantity`

	removeCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	getCartLineSQL = `SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND ci.product_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// List returns the user's cart lines joined with current product prices.
func (r *CartRepository) List(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Upsert inserts a cart line or increments an existing one's quantity.
func (r *CartRepository) Upsert(ctx context.Context, userID, productID string, qty int) (*cart.Line, error) {
	if _, err := r.pool.Exec(ctx, upsertCartSQL, userID, productID, qty); err != nil {
		return nil, errors.Wrapf(err, "upsert cart item %q", productID)
	}
	return r.getLine(ctx, userID, productID)
}

// SetQuantity replaces the quantity of an existing line.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID string, qty int) (*cart.Line, error) {
	tag, err := r.pool.Exec(ctx, setCartQuantitySQL, userID, productID, qty)
	if err != nil {
		return nil, errors.Wrapf(err, "set cart quantity %q", productID)
	}
	if tag.RowsAffected() == 0 {
		return nil, cart.ErrItemNotFound
	}
	return r.getLine(ctx, userID, productID)
}

// Remove deletes a cart line.
func (r *CartRepository) Remove(ctx context.Context, userID, productID string) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, userID, productID)
	if err != nil {
		return errors.Wrapf(err, "remove cart item %q", productID)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) getLine(ctx context.Context, userID, productID string) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, getCartLineSQL, userID, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart line")
	}
	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, errors.Wrap(err, "get cart line")
	}
	return &line, nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ProductID, &l.Name, &l.Price, &l.Quantity)
	return l, err
}
