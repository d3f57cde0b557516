package domain

import "time"

// WishlistItem is a product saved in a user's wishlist. A product appears
// at most once per user.
type WishlistItem struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	CreatedAt   time.Time `json:"createdAt"`
}
