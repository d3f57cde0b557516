package domain

import "github.com/shopspring/decimal"

// ProductStatus represents the availability status of a catalog product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog product as returned by the commerce backend.
// Stock is the live available quantity at lookup time.
type Product struct {
	ID       string           `json:"id"`
	Slug     string           `json:"slug"`
	Name     string           `json:"name"`
	Price    decimal.Decimal  `json:"price"`
	Currency string           `json:"currency"`
	Images   []string         `json:"images,omitempty"`
	Status   ProductStatus    `json:"status"`
	Stock    int              `json:"stock"`
	Featured bool             `json:"featured,omitempty"`
	Combo    bool             `json:"combo,omitempty"`
	Variants []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a purchasable sub-option of a product (e.g. a size)
// with its own price and stock.
type ProductVariant struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Status ProductStatus   `json:"status"`
	Stock  int             `json:"stock"`
}

func (p Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

func (v ProductVariant) IsActive() bool {
	return v.Status == ProductStatusActive
}

// Variant returns the variant with the given id, if present.
func (p Product) Variant(id string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}
