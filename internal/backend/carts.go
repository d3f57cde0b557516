package backend

import (
	"context"
	"net/http"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
)

// CartLinePayload is the body for adding a line to the server-held cart.
type CartLinePayload struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type updateLinePayload struct {
	Quantity int `json:"quantity"`
}

// FetchCart returns the server-held cart of the current session.
func (c *Client) FetchCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &cart, true); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddCartLine appends a line to the server-held cart and returns the
// server's version of it, including the assigned line id.
func (c *Client) AddCartLine(ctx context.Context, p CartLinePayload) (*domain.CartItem, error) {
	var item domain.CartItem
	if err := c.do(ctx, http.MethodPost, "/cart/items", nil, p, &item, true); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateCartLine sets the quantity of an existing server-held line.
func (c *Client) UpdateCartLine(ctx context.Context, itemID string, quantity int) error {
	return c.do(ctx, http.MethodPatch, "/cart/items/"+itemID, nil, updateLinePayload{Quantity: quantity}, nil, true)
}

// RemoveCartLine deletes a server-held line.
func (c *Client) RemoveCartLine(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/items/"+itemID, nil, nil, nil, true)
}
