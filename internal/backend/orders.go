package backend

import (
	"context"
	"net/http"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
)

// OrderPayload is the body for creating an order. No payment reference
// yet; that is patched in after the payment step succeeds.
type OrderPayload struct {
	ShippingAddress domain.Address `json:"shippingAddress"`
	BillingAddress  domain.Address `json:"billingAddress"`
}

type paymentPatch struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// CreateOrder creates a pending order from the current server-held cart.
func (c *Client) CreateOrder(ctx context.Context, p OrderPayload) (*domain.Order, error) {
	var ord domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, p, &ord, true); err != nil {
		return nil, err
	}
	return &ord, nil
}

// AttachPayment patches the order with the payment transaction reference.
// Callers treat this as best-effort.
func (c *Client) AttachPayment(ctx context.Context, orderID, paymentIntentID string) error {
	return c.do(ctx, http.MethodPatch, "/orders/"+orderID, nil, paymentPatch{PaymentIntentID: paymentIntentID}, nil, true)
}
