package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodavnica/storefront/internal/domain/order"
)

const (
	// FOR UPDATE OF ci serializes checkout against concurrent mutation of the
	// same cart: a second checkout or a cart edit blocks until this
	// transaction commits, so a cart can never be read twice into two orders.
	lockCartLinesSQL = `SELECT ci.product_id, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF ci`

	insertOrderSQL = `INSERT INTO orders (id, user_id, total, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`

	getOrderByIDSQL = `SELECT id, user_id, total, status, payment_intent_id, created_at
		FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, total, status, payment_intent_id, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderItemsByUserSQL = `SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = $1`

	// The WHERE clause is the atomic intent-creation gate: only one caller can
	// move payment_intent_id from NULL to a value.
	claimIntentSQL = `UPDATE orders SET payment_intent_id = $2
		WHERE id = $1 AND payment_intent_id IS NULL`

	// Conditional completion keeps webhook redelivery a no-op.
	completeOrderSQL = `UPDATE orders SET status = $2
		WHERE id = $1 AND status <> $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart runs the checkout transaction: lock and read the user's cart
// lines with their current prices, build the order via the domain callback,
// insert order and items, and clear the cart. All five steps commit together
// or not at all.
func (r *OrderRepository) CreateFromCart(ctx context.Context, userID string, build order.BuildFunc) (*order.Order, []order.Item, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "begin checkout tx")
	}
	defer tx.Rollback(ctx) // no-op once committed

	rows, err := tx.Query(ctx, lockCartLinesSQL, userID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "lock cart lines")
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.CheckoutLine, error) {
		var l order.CheckoutLine
		err := row.Scan(&l.ProductID, &l.Price, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "read cart lines")
	}

	o, items, err := build(lines)
	if err != nil {
		return nil, nil, err
	}

	err = tx.QueryRow(ctx, insertOrderSQL, o.ID, o.UserID, o.Total, string(o.Status)).
		Scan(&o.CreatedAt)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "insert order %q", o.ID)
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(insertOrderItemSQL, it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, nil, errors.Wrap(err, "insert order items")
	}

	if _, err := tx.Exec(ctx, clearCartSQL, userID); err != nil {
		return nil, nil, errors.Wrap(err, "clear cart")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "commit checkout tx")
	}
	return o, items, nil
}

// GetByID returns a single order by identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

// ListByUser returns the user's orders with their items, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.WithItems, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list order items")
	}
	items, err := pgx.CollectRows(itemRows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price)
		return it, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan order items")
	}

	byOrder := make(map[string][]order.Item, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	out := make([]order.WithItems, len(orders))
	for i, o := range orders {
		out[i] = order.WithItems{Order: o, Items: byOrder[o.ID]}
	}
	return out, nil
}

// ClaimPaymentIntent conditionally stores the intent id, reporting whether
// this call won the per-order claim.
func (r *OrderRepository) ClaimPaymentIntent(ctx context.Context, orderID, intentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, claimIntentSQL, orderID, intentID)
	if err != nil {
		return false, errors.Wrapf(err, "claim payment intent for order %q", orderID)
	}
	return tag.RowsAffected() == 1, nil
}

// Complete idempotently transitions the order to completed, reporting whether
// this call performed the transition.
func (r *OrderRepository) Complete(ctx context.Context, orderID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, completeOrderSQL, orderID, string(order.StatusCompleted))
	if err != nil {
		return false, errors.Wrapf(err, "complete order %q", orderID)
	}
	return tag.RowsAffected() == 1, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o        order.Order
		status   string
		intentID *string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &status, &intentID, &o.CreatedAt)
	o.Status = order.Status(status)
	if intentID != nil {
		o.PaymentIntentID = *intentID
	}
	return o, err
}
