package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCart struct {
	m       sync.Mutex
	items   []domain.CartItem
	cleared int
}

func (m *mockCart) Items() []domain.CartItem {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]domain.CartItem(nil), m.items...)
}

func (m *mockCart) Subtotal() decimal.Decimal {
	c := domain.Cart{Items: m.Items()}
	return c.Subtotal()
}

func (m *mockCart) Clear(context.Context) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cleared++
	m.items = nil
	return nil
}

type mockValidator struct {
	result domain.ValidationResult
	calls  int
}

func (m *mockValidator) ValidateCart(_ context.Context, items []domain.CartItem) domain.ValidationResult {
	m.calls++
	if m.result.Items != nil {
		return m.result
	}
	ok := domain.ValidationResult{}
	for _, it := range items {
		ok.Items = append(ok.Items, domain.ItemValidation{ItemID: it.ID, AvailableStock: it.Quantity})
	}
	return ok
}

type mockOrders struct {
	m           sync.Mutex
	createCalls int
	patchCalls  int
	createErr   error
	patchErr    error
	lastPatchID string
	lastPatchTx string
}

func (m *mockOrders) CreateOrder(_ context.Context, p backend.OrderPayload) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.Order{
		ID:              "ord-1",
		Status:          domain.OrderStatusPending,
		Total:           decimal.RequireFromString("30"),
		Currency:        "USD",
		ShippingAddress: p.ShippingAddress,
		BillingAddress:  p.BillingAddress,
	}, nil
}

func (m *mockOrders) AttachPayment(_ context.Context, orderID, txID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.patchCalls++
	m.lastPatchID = orderID
	m.lastPatchTx = txID
	return m.patchErr
}

type mockCollector struct {
	result *domain.PaymentResult
	err    error
}

func (m mockCollector) Collect(context.Context, *domain.Order) (*domain.PaymentResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockPublisher struct {
	m      sync.Mutex
	events []CompletedEvent
}

func (m *mockPublisher) PublishCompleted(_ context.Context, ev CompletedEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.events)
}

func validAddress() domain.Address {
	return domain.Address{
		Name:    "Ana Pérez",
		Line1:   "Calle 23 #456",
		City:    "La Habana",
		Zip:     "10400",
		Country: "CU",
	}
}

func successPayment() mockCollector {
	return mockCollector{result: &domain.PaymentResult{
		TransactionID: "tx-99",
		Amount:        decimal.RequireFromString("30"),
		Currency:      "USD",
	}}
}

func newTestSession(cart *mockCart, v *mockValidator, orders *mockOrders, pub Publisher) *Session {
	return NewSession("u1", cart, v, orders, pub, zap.NewNop())
}

func cartWithItems() *mockCart {
	return &mockCart{items: []domain.CartItem{
		{ID: "a", ProductID: "p1", ProductName: "Café", Quantity: 3},
	}}
}

func TestSubmitShippingHappyPath(t *testing.T) {
	cart := cartWithItems()
	orders := &mockOrders{}
	s := newTestSession(cart, &mockValidator{}, orders, nil)

	order, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, StatusAwaitingPayment, s.Status())
	assert.Equal(t, 1, orders.createCalls)
	assert.Zero(t, cart.cleared, "order creation alone never clears the cart")
}

func TestSubmitShippingStockIssueBlocksOrderCreation(t *testing.T) {
	cart := cartWithItems()
	orders := &mockOrders{}
	v := &mockValidator{result: domain.ValidationResult{Items: []domain.ItemValidation{
		{ItemID: "a", Issue: domain.IssueInsufficientStock, AvailableStock: 2, ProductName: "Café"},
	}}}
	s := newTestSession(cart, v, orders, nil)

	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Contains(t, stockErr.Error(), "2 disponibles")
	assert.Zero(t, orders.createCalls, "the stock gate is hard: no order request fires")
	assert.Equal(t, StatusCollectingShipping, s.Status(), "the user is sent back to the form")
	assert.True(t, s.LastValidation().HasIssues())
}

func TestSubmitShippingRevalidatesEveryAttempt(t *testing.T) {
	cart := cartWithItems()
	v := &mockValidator{result: domain.ValidationResult{Items: []domain.ItemValidation{
		{ItemID: "a", Issue: domain.IssueOutOfStock, ProductName: "Café"},
	}}}
	s := newTestSession(cart, v, &mockOrders{}, nil)

	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())
	require.Error(t, err)

	// Stock came back; the next submit must re-validate, not trust the
	// stale snapshot.
	v.result = domain.ValidationResult{}
	_, err = s.SubmitShipping(context.Background(), validAddress(), validAddress())
	require.NoError(t, err)
	assert.Equal(t, 2, v.calls)
}

func TestSubmitShippingInvalidAddress(t *testing.T) {
	s := newTestSession(cartWithItems(), &mockValidator{}, &mockOrders{}, nil)

	addr := validAddress()
	addr.City = ""
	_, err := s.SubmitShipping(context.Background(), addr, validAddress())

	var shipErr *ShippingError
	require.ErrorAs(t, err, &shipErr)
	assert.Equal(t, StatusCollectingShipping, s.Status())
}

func TestSubmitShippingEmptyCart(t *testing.T) {
	s := newTestSession(&mockCart{}, &mockValidator{}, &mockOrders{}, nil)
	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StatusCollectingShipping, s.Status())
}

func TestSubmitShippingOrderCreationFailure(t *testing.T) {
	cart := cartWithItems()
	orders := &mockOrders{createErr: errors.New("backend down")}
	s := newTestSession(cart, &mockValidator{}, orders, nil)

	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())

	var orderErr *OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, StatusCollectingShipping, s.Status())
	assert.Zero(t, cart.cleared)
}

func TestSubmitShippingTwiceIsIllegal(t *testing.T) {
	s := newTestSession(cartWithItems(), &mockValidator{}, &mockOrders{}, nil)
	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())
	require.NoError(t, err)

	_, err = s.SubmitShipping(context.Background(), validAddress(), validAddress())
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestPaymentFailureKeepsOrderAndCartForRetry(t *testing.T) {
	cart := cartWithItems()
	orders := &mockOrders{}
	s := newTestSession(cart, &mockValidator{}, orders, nil)

	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())
	require.NoError(t, err)

	_, err = s.CompletePayment(context.Background(), mockCollector{err: errors.New("card declined")})
	var payErr *PaymentError
	require.ErrorAs(t, err, &payErr)

	assert.Equal(t, StatusPaymentFailed, s.Status())
	assert.NotEmpty(t, cart.Items(), "the cart survives a failed payment")
	assert.Zero(t, cart.cleared)
	assert.NotNil(t, s.Order(), "the order survives for retry")
	assert.Equal(t, 1, orders.createCalls, "retry never recreates the order")

	// Retry succeeds without going back through shipping.
	_, err = s.CompletePayment(context.Background(), successPayment())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status())
	assert.Equal(t, 1, cart.cleared)
	assert.Equal(t, 1, orders.createCalls)
}

func TestPaymentSuccessClearsCartOnce(t *testing.T) {
	cart := cartWithItems()
	orders := &mockOrders{}
	s := newTestSession(cart, &mockValidator{}, orders, nil)

	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())
	require.NoError(t, err)

	payment, err := s.CompletePayment(context.Background(), successPayment())
	require.NoError(t, err)
	assert.Equal(t, "tx-99", payment.TransactionID)
	assert.Equal(t, 1, cart.cleared)
	assert.Equal(t, 1, orders.patchCalls)
	assert.Equal(t, "ord-1", orders.lastPatchID)
	assert.Equal(t, "tx-99", orders.lastPatchTx)
	assert.Equal(t, "tx-99", s.Order().PaymentIntentID)
}

func TestPaymentPatchFailureStillCompletes(t *testing.T) {
	cart := cartWithItems()
	orders := &mockOrders{patchErr: errors.New("patch lost")}
	pub := &mockPublisher{}
	s := newTestSession(cart, &mockValidator{}, orders, pub)

	_, err := s.SubmitShipping(context.Background(), validAddress(), validAddress())
	require.NoError(t, err)

	// Payment already succeeded; the best-effort patch must not block the
	// user or retry the charge.
	payment, err := s.CompletePayment(context.Background(), successPayment())
	require.NoError(t, err)
	assert.Equal(t, "tx-99", payment.TransactionID)
	assert.Equal(t, StatusCompleted, s.Status())
	assert.Equal(t, 1, cart.cleared)

	// The completion event still carries the transaction id so a
	// consumer can reconcile the unrecorded reference.
	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)
	pub.m.Lock()
	defer pub.m.Unlock()
	assert.Equal(t, "tx-99", pub.events[0].TransactionID)
	assert.Equal(t, "ord-1", pub.events[0].OrderID)
}

func TestCompletePaymentBeforeOrderIsIllegal(t *testing.T) {
	s := newTestSession(cartWithItems(), &mockValidator{}, &mockOrders{}, nil)
	_, err := s.CompletePayment(context.Background(), successPayment())
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransitionTo(StatusCollectingShipping, StatusValidating))
	assert.True(t, CanTransitionTo(StatusValidating, StatusCollectingShipping))
	assert.True(t, CanTransitionTo(StatusValidating, StatusOrderCreated))
	assert.True(t, CanTransitionTo(StatusAwaitingPayment, StatusPaymentFailed))
	assert.True(t, CanTransitionTo(StatusPaymentFailed, StatusAwaitingPayment))

	assert.False(t, CanTransitionTo(StatusPaymentFailed, StatusCollectingShipping),
		"payment failure never returns to shipping")
	assert.False(t, CanTransitionTo(StatusCompleted, StatusAwaitingPayment))
	assert.False(t, CanTransitionTo(StatusCollectingShipping, StatusOrderCreated))

	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusPaymentFailed.IsTerminal())
}
