package payment

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodavnica/storefront/internal/domain/order"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID map[string]*order.Order

	// claimWinner, when set, makes every claim lose and stores this intent
	// id on the order instead, simulating a concurrent winner.
	claimWinner string

	claimCalls    int
	completeCalls int
	completed     map[string]bool
}

func (m *mockOrderRepo) CreateFromCart(_ context.Context, _ string, _ order.BuildFunc) (*order.Order, []order.Item, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]order.WithItems, error) {
	return nil, nil
}

func (m *mockOrderRepo) ClaimPaymentIntent(_ context.Context, orderID, intentID string) (bool, error) {
	m.claimCalls++
	o, ok := m.byID[orderID]
	if !ok {
		return false, order.ErrNotFound
	}
	if o.PaymentIntentID != "" {
		return false, nil
	}
	if m.claimWinner != "" {
		o.PaymentIntentID = m.claimWinner
		return false, nil
	}
	o.PaymentIntentID = intentID
	return true, nil
}

func (m *mockOrderRepo) Complete(_ context.Context, orderID string) (bool, error) {
	m.completeCalls++
	if m.completed == nil {
		m.completed = make(map[string]bool)
	}
	if m.completed[orderID] {
		return false, nil
	}
	m.completed[orderID] = true
	return true, nil
}

type mockProcessor struct {
	nextID string

	createErr error
	cancelErr error

	createdReqs []CreateIntentRequest
	cancelled   []string
	retrieved   []string
}

func (m *mockProcessor) CreateIntent(_ context.Context, req CreateIntentRequest) (*Intent, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdReqs = append(m.createdReqs, req)
	return &Intent{ID: m.nextID, ClientSecret: m.nextID + "_secret"}, nil
}

func (m *mockProcessor) GetIntent(_ context.Context, id string) (*Intent, error) {
	m.retrieved = append(m.retrieved, id)
	return &Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (m *mockProcessor) CancelIntent(_ context.Context, id string) error {
	m.cancelled = append(m.cancelled, id)
	return m.cancelErr
}

// --- Tests ---

func newPendingOrder(id, total string) *order.Order {
	return &order.Order{
		ID:     id,
		UserID: "u1",
		Total:  decimal.RequireFromString(total),
		Status: order.StatusPending,
	}
}

func TestCreateOrReuse_FirstCall(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*order.Order{
		"o1": newPendingOrder("o1", "25.50"),
	}}
	proc := &mockProcessor{nextID: "pi_1"}
	m := NewManager(repo, proc)

	secret, err := m.CreateOrReuse(context.Background(), "o1", "eur")
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", secret)

	require.Len(t, proc.createdReqs, 1)
	assert.Equal(t, int64(2550), proc.createdReqs[0].AmountMinor)
	assert.Equal(t, "eur", proc.createdReqs[0].Currency)
	assert.Equal(t, "o1", proc.createdReqs[0].OrderID)

	assert.Equal(t, "pi_1", repo.byID["o1"].PaymentIntentID)
	assert.Empty(t, proc.cancelled)
}

func TestCreateOrReuse_ZeroDecimalCurrency(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*order.Order{
		"o1": newPendingOrder("o1", "1200"),
	}}
	proc := &mockProcessor{nextID: "pi_1"}
	m := NewManager(repo, proc)

	_, err := m.CreateOrReuse(context.Background(), "o1", "jpy")
	require.NoError(t, err)

	require.Len(t, proc.createdReqs, 1)
	assert.Equal(t, int64(1200), proc.createdReqs[0].AmountMinor)
}

func TestCreateOrReuse_ReusesExistingIntent(t *testing.T) {
	o := newPendingOrder("o1", "25.50")
	o.PaymentIntentID = "pi_existing"
	repo := &mockOrderRepo{byID: map[string]*order.Order{"o1": o}}
	proc := &mockProcessor{nextID: "pi_unused"}
	m := NewManager(repo, proc)

	secret, err := m.CreateOrReuse(context.Background(), "o1", "eur")
	require.NoError(t, err)
	assert.Equal(t, "pi_existing_secret", secret)

	assert.Empty(t, proc.createdReqs)
	assert.Equal(t, 0, repo.claimCalls)
}

func TestCreateOrReuse_LostClaimRace(t *testing.T) {
	repo := &mockOrderRepo{
		byID:        map[string]*order.Order{"o1": newPendingOrder("o1", "25.50")},
		claimWinner: "pi_winner",
	}
	proc := &mockProcessor{nextID: "pi_loser"}
	m := NewManager(repo, proc)

	secret, err := m.CreateOrReuse(context.Background(), "o1", "eur")
	require.NoError(t, err)

	// The loser cancels its own intent and serves the winner's secret.
	assert.Equal(t, "pi_winner_secret", secret)
	assert.Equal(t, []string{"pi_loser"}, proc.cancelled)
	assert.Equal(t, "pi_winner", repo.byID["o1"].PaymentIntentID)
}

func TestCreateOrReuse_CancelFailureStillReturnsWinner(t *testing.T) {
	repo := &mockOrderRepo{
		byID:        map[string]*order.Order{"o1": newPendingOrder("o1", "25.50")},
		claimWinner: "pi_winner",
	}
	proc := &mockProcessor{nextID: "pi_loser", cancelErr: errors.New("processor down")}
	m := NewManager(repo, proc)

	secret, err := m.CreateOrReuse(context.Background(), "o1", "eur")
	require.NoError(t, err)
	assert.Equal(t, "pi_winner_secret", secret)
}

func TestCreateOrReuse_UnknownOrder(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*order.Order{}}
	m := NewManager(repo, &mockProcessor{})

	_, err := m.CreateOrReuse(context.Background(), "o-missing", "eur")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestCreateOrReuse_ProcessorError(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*order.Order{
		"o1": newPendingOrder("o1", "25.50"),
	}}
	procErr := &ProcessorError{Op: "create intent", Err: errors.New("unavailable")}
	proc := &mockProcessor{createErr: procErr}
	m := NewManager(repo, proc)

	_, err := m.CreateOrReuse(context.Background(), "o1", "eur")

	var pe *ProcessorError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "", repo.byID["o1"].PaymentIntentID)
}
