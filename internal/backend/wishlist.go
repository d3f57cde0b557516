package backend

import (
	"context"
	"net/http"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
)

type wishlistPayload struct {
	ProductID string `json:"productId"`
}

// FetchWishlist returns the current session's wishlist.
func (c *Client) FetchWishlist(ctx context.Context) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	if err := c.do(ctx, http.MethodGet, "/wishlist", nil, nil, &items, true); err != nil {
		return nil, err
	}
	return items, nil
}

// AddWishlistItem saves a product to the wishlist. The backend treats a
// duplicate add as an update, never as a second row.
func (c *Client) AddWishlistItem(ctx context.Context, productID string) (*domain.WishlistItem, error) {
	var item domain.WishlistItem
	if err := c.do(ctx, http.MethodPost, "/wishlist", nil, wishlistPayload{ProductID: productID}, &item, true); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveWishlistItem deletes a product from the wishlist.
func (c *Client) RemoveWishlistItem(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/wishlist/"+productID, nil, nil, nil, true)
}
