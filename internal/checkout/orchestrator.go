// Package checkout sequences validate -> create order -> collect payment
// -> record payment -> clear cart, with explicit status gates. Stock
// issues are a hard gate before order creation; payment failure keeps the
// created order and allows retry; the payment-reference patch is
// best-effort and never blocks a paid user.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartAccess is the slice of the cart store checkout needs.
type CartAccess interface {
	Items() []domain.CartItem
	Subtotal() decimal.Decimal
	Clear(ctx context.Context) error
}

// CartValidator re-runs the stock validation pass.
type CartValidator interface {
	ValidateCart(ctx context.Context, items []domain.CartItem) domain.ValidationResult
}

// OrderAPI creates orders and patches the payment reference.
type OrderAPI interface {
	CreateOrder(ctx context.Context, p backend.OrderPayload) (*domain.Order, error)
	AttachPayment(ctx context.Context, orderID, paymentIntentID string) error
}

// Collector runs the external payment step for the created order and
// yields the transaction reference on success. Its internal protocol is
// out of scope here.
type Collector interface {
	Collect(ctx context.Context, order *domain.Order) (*domain.PaymentResult, error)
}

// Publisher emits the checkout-completed event. May be nil.
type Publisher interface {
	PublishCompleted(ctx context.Context, ev CompletedEvent) error
}

var schema = playground.New(playground.WithRequiredStructEnabled())

// Session is one checkout attempt over one cart.
type Session struct {
	mu     sync.Mutex
	status Status

	userID    string
	cart      CartAccess
	validator CartValidator
	orders    OrderAPI
	publisher Publisher
	log       *zap.Logger

	order          *domain.Order
	lastValidation domain.ValidationResult
}

func NewSession(userID string, cart CartAccess, v CartValidator, orders OrderAPI, publisher Publisher, log *zap.Logger) *Session {
	return &Session{
		status:    StatusCollectingShipping,
		userID:    userID,
		cart:      cart,
		validator: v,
		orders:    orders,
		publisher: publisher,
		log:       log,
	}
}

// transition moves the session to a new status. Callers hold s.mu.
func (s *Session) transition(to Status) error {
	if !CanTransitionTo(s.status, to) {
		return ErrIllegalTransition
	}
	s.status = to
	return nil
}

// SubmitShipping validates the shipping/billing form, re-validates the
// cart against live stock and creates the order. Stock issues send the
// session back to CollectingShipping and no POST /orders fires.
func (s *Session) SubmitShipping(ctx context.Context, shipping, billing domain.Address) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(StatusValidating); err != nil {
		return nil, err
	}

	if err := schema.Struct(shipping); err != nil {
		s.status = StatusCollectingShipping
		return nil, &ShippingError{cause: err}
	}
	if err := schema.Struct(billing); err != nil {
		s.status = StatusCollectingShipping
		return nil, &ShippingError{cause: err}
	}

	items := s.cart.Items()
	if len(items) == 0 {
		s.status = StatusCollectingShipping
		return nil, ErrEmptyCart
	}

	// Hard gate: stock can change between cart view and submission, so an
	// earlier validation result is never trusted here.
	result := s.validator.ValidateCart(ctx, items)
	s.lastValidation = result
	if result.HasIssues() {
		s.status = StatusCollectingShipping
		return nil, &StockError{Result: result}
	}

	order, err := s.orders.CreateOrder(ctx, backend.OrderPayload{
		ShippingAddress: shipping,
		BillingAddress:  billing,
	})
	if err != nil {
		s.status = StatusCollectingShipping
		return nil, &OrderError{cause: err}
	}

	s.order = order
	s.status = StatusOrderCreated
	// Nothing happens between order creation and payment collection.
	s.status = StatusAwaitingPayment

	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", s.userID))
	return order, nil
}

// CompletePayment runs the payment step for the created order. On failure
// the session stays retryable in AwaitingPayment; shipping data and the
// order survive. On success the payment reference is patched best-effort,
// the cart is cleared exactly once and the completion event is published.
func (s *Session) CompletePayment(ctx context.Context, collector Collector) (*domain.PaymentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusPaymentFailed {
		if err := s.transition(StatusAwaitingPayment); err != nil {
			return nil, err
		}
	}
	if s.status != StatusAwaitingPayment {
		return nil, ErrIllegalTransition
	}
	if s.order == nil {
		return nil, ErrNoOrder
	}

	payment, err := collector.Collect(ctx, s.order)
	if err != nil {
		s.status = StatusPaymentFailed
		return nil, &PaymentError{cause: err}
	}

	// Payment already succeeded: failing to record the reference must not
	// block the user or retry the charge. The completion event still
	// carries the transaction id for downstream reconciliation.
	if err := s.orders.AttachPayment(ctx, s.order.ID, payment.TransactionID); err != nil {
		s.log.Error("payment reference not recorded on order",
			zap.String("order_id", s.order.ID),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
	} else {
		s.order.PaymentIntentID = payment.TransactionID
	}

	if err := s.cart.Clear(ctx); err != nil {
		s.log.Warn("cart clear after payment failed", zap.Error(err))
	}

	s.status = StatusCompleted
	s.publish(payment)

	s.log.Info("checkout completed",
		zap.String("order_id", s.order.ID),
		zap.String("transaction_id", payment.TransactionID))
	return payment, nil
}

// publish emits the completion event off the request path. Callers hold
// s.mu.
func (s *Session) publish(payment *domain.PaymentResult) {
	if s.publisher == nil {
		return
	}
	ev := NewCompletedEvent(s.userID, s.order, payment)
	pub := s.publisher
	log := s.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.PublishCompleted(ctx, ev); err != nil {
			log.Warn("checkout completion event not published",
				zap.String("order_id", ev.OrderID), zap.Error(err))
		}
	}()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Order returns the created order, nil before order creation.
func (s *Session) Order() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// LastValidation returns the most recent validation snapshot, for
// rendering per-line messages.
func (s *Session) LastValidation() domain.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastValidation
}
