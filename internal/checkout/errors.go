package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal checkout status transition")
	ErrNoOrder           = errors.New("no order has been created for this session")
)

// StockError carries the full validation snapshot so every offending line
// can be shown with its own message.
type StockError struct {
	Result domain.ValidationResult
}

func (e *StockError) Error() string {
	msgs := e.Result.Messages()
	if len(msgs) == 0 {
		return "hay productos no disponibles en tu carrito"
	}
	return "hay productos no disponibles en tu carrito: " + strings.Join(msgs, "; ")
}

// ShippingError marks a schema failure on the shipping/billing form.
type ShippingError struct {
	cause error
}

func (e *ShippingError) Error() string {
	return fmt.Sprintf("datos de envío inválidos: %v", e.cause)
}

func (e *ShippingError) Unwrap() error {
	return e.cause
}

// OrderError distinguishes "order creation failed" from stock and payment
// problems.
type OrderError struct {
	cause error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("no se pudo crear el pedido: %v", e.cause)
}

func (e *OrderError) Unwrap() error {
	return e.cause
}

// PaymentError marks a failed payment attempt; the session stays in
// AwaitingPayment so the user can retry.
type PaymentError struct {
	cause error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("el pago no se pudo completar: %v", e.cause)
}

func (e *PaymentError) Unwrap() error {
	return e.cause
}
