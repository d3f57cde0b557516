package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one (product, optional variant, quantity) line in a cart.
// ID is server-assigned once the line has been synced; before that it is
// a client-local identifier.
type CartItem struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductSlug  string          `json:"productSlug,omitempty"`
	VariantID    string          `json:"variantId,omitempty"`
	VariantName  string          `json:"variantName,omitempty"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	VariantPrice decimal.Decimal `json:"variantPrice,omitempty"`
	Quantity     int             `json:"quantity"`
	AddedAt      time.Time       `json:"addedAt"`
}

// UnitPrice is the effective unit price of the line: the variant price
// when a variant is selected, the product price otherwise.
func (it CartItem) UnitPrice() decimal.Decimal {
	if it.VariantID != "" {
		return it.VariantPrice
	}
	return it.ProductPrice
}

// LineTotal returns UnitPrice * Quantity.
func (it CartItem) LineTotal() decimal.Decimal {
	return it.UnitPrice().Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// DisplayName is the line's human-readable name, including the variant
// when one is selected.
func (it CartItem) DisplayName() string {
	if it.VariantName != "" {
		return it.ProductName + " (" + it.VariantName + ")"
	}
	return it.ProductName
}

// SameLine reports whether two items reference the same product+variant
// pair. Such items must never coexist as separate lines.
func (it CartItem) SameLine(other CartItem) bool {
	return it.ProductID == other.ProductID && it.VariantID == other.VariantID
}

// Cart is an ordered sequence of cart lines. Insertion order is display
// order.
type Cart struct {
	UserID    string     `json:"-"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Subtotal is the derived sum of line totals, recomputed on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// ItemCount is the derived sum of quantities across lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
