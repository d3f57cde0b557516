package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
)

// ProductQuery holds the catalog listing filters.
type ProductQuery struct {
	Page     int
	PerPage  int
	Category string
	Search   string
	Featured bool
	Combo    bool
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(q.PerPage))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Featured {
		v.Set("featured", "true")
	}
	if q.Combo {
		v.Set("combo", "true")
	}
	return v
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Items []domain.Product `json:"items"`
	Total int              `json:"total"`
}

// ListProducts queries the catalog. Used for browsing and for the
// search-as-you-type suggestions.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	var page ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", q.values(), nil, &page, false); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct resolves one product with live stock and availability.
// Returns an error matching ErrNotFound when the product no longer exists.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+id, nil, nil, &p, false); err != nil {
		return nil, err
	}
	return &p, nil
}
