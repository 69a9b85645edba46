package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	cartLines []CheckoutLine
	createErr error

	created      *Order
	createdItems []Item
	cartCleared  bool

	listed []WithItems
}

func (m *mockOrderRepo) CreateFromCart(_ context.Context, _ string, build BuildFunc) (*Order, []Item, error) {
	if m.createErr != nil {
		return nil, nil, m.createErr
	}
	o, items, err := build(m.cartLines)
	if err != nil {
		return nil, nil, err
	}
	m.created = o
	m.createdItems = items
	m.cartCleared = true
	return o, items, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*Order, error) {
	return nil, ErrNotFound
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]WithItems, error) {
	return m.listed, nil
}

func (m *mockOrderRepo) ClaimPaymentIntent(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (m *mockOrderRepo) Complete(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type notifierCall struct {
	userID  string
	orderID string
	total   decimal.Decimal
}

type mockNotifier struct {
	calls []notifierCall
}

func (m *mockNotifier) OrderPlaced(userID, orderID string, total decimal.Decimal) {
	m.calls = append(m.calls, notifierCall{userID: userID, orderID: orderID, total: total})
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	repo := &mockOrderRepo{}
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)

	_, _, err := svc.Checkout(context.Background(), "u1")
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Nil(t, repo.created)
	assert.Empty(t, notifier.calls)
}

func TestCheckout_SnapshotsTotalsAndItems(t *testing.T) {
	repo := &mockOrderRepo{cartLines: []CheckoutLine{
		{ProductID: "p-mug", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: "p-tray", Price: decimal.RequireFromString("5.50"), Quantity: 1},
	}}
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)

	o, items, err := svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "25.50", o.Total.StringFixed(2))
	assert.True(t, repo.cartCleared)

	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotEmpty(t, it.ID)
		assert.Equal(t, o.ID, it.OrderID)
	}
	assert.Equal(t, "p-mug", items[0].ProductID)
	assert.Equal(t, "10.00", items[0].Price.StringFixed(2))
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCheckout_NotifiesOnSuccess(t *testing.T) {
	repo := &mockOrderRepo{cartLines: []CheckoutLine{
		{ProductID: "p-mug", Price: decimal.RequireFromString("10.00"), Quantity: 1},
	}}
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)

	o, _, err := svc.Checkout(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "u1", notifier.calls[0].userID)
	assert.Equal(t, o.ID, notifier.calls[0].orderID)
	assert.True(t, notifier.calls[0].total.Equal(o.Total))
}

func TestCheckout_RepositoryError(t *testing.T) {
	repoErr := errors.New("connection reset")
	repo := &mockOrderRepo{createErr: repoErr}
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)

	_, _, err := svc.Checkout(context.Background(), "u1")
	require.ErrorIs(t, err, repoErr)
	assert.Empty(t, notifier.calls)
}

func TestListByUser(t *testing.T) {
	repo := &mockOrderRepo{listed: []WithItems{
		{Order: Order{ID: "o1", UserID: "u1"}},
	}}
	svc := NewService(repo, &mockNotifier{})

	got, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].Order.ID)
}
