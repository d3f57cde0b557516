package stock

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCatalog struct {
	products map[string]*domain.Product
	errs     map[string]error
	calls    int
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.calls++
	if err, ok := m.errs[id]; ok {
		return nil, err
	}
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: product %s", backend.ErrNotFound, id)
}

func activeProduct(id string, stock int) *domain.Product {
	return &domain.Product{
		ID:     id,
		Name:   "Producto " + id,
		Status: domain.ProductStatusActive,
		Stock:  stock,
	}
}

func item(id, productID string, qty int) domain.CartItem {
	return domain.CartItem{ID: id, ProductID: productID, ProductName: "Producto " + productID, Quantity: qty}
}

func TestValidateCartClassification(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		quantity  int
		wantIssue domain.ValidationIssue
		wantStock int
	}{
		{"enough stock", 5, 3, domain.IssueNone, 5},
		{"exact stock", 3, 3, domain.IssueNone, 3},
		{"insufficient", 2, 3, domain.IssueInsufficientStock, 2},
		{"out of stock", 0, 1, domain.IssueOutOfStock, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &mockCatalog{products: map[string]*domain.Product{
				"p1": activeProduct("p1", tt.stock),
			}}
			v := NewValidator(catalog, zap.NewNop())

			result := v.ValidateCart(context.Background(), []domain.CartItem{item("a", "p1", tt.quantity)})
			require.Len(t, result.Items, 1)
			assert.Equal(t, tt.wantIssue, result.Items[0].Issue)
			assert.Equal(t, tt.wantStock, result.Items[0].AvailableStock)
			assert.Equal(t, tt.wantIssue != domain.IssueNone, result.HasIssues())
		})
	}
}

func TestValidateCartInactiveProductIsUnavailable(t *testing.T) {
	p := activeProduct("p1", 10)
	p.Status = domain.ProductStatusInactive
	catalog := &mockCatalog{products: map[string]*domain.Product{"p1": p}}
	v := NewValidator(catalog, zap.NewNop())

	result := v.ValidateCart(context.Background(), []domain.CartItem{item("a", "p1", 1)})
	assert.Equal(t, domain.IssueUnavailable, result.Items[0].Issue)
}

func TestValidateCartMissingProductIsUnavailable(t *testing.T) {
	v := NewValidator(&mockCatalog{}, zap.NewNop())
	result := v.ValidateCart(context.Background(), []domain.CartItem{item("a", "gone", 1)})
	assert.Equal(t, domain.IssueUnavailable, result.Items[0].Issue)
}

func TestValidateCartVariantStock(t *testing.T) {
	p := activeProduct("p1", 50)
	p.Variants = []domain.ProductVariant{
		{ID: "v1", Name: "Chico", Status: domain.ProductStatusActive, Stock: 1},
		{ID: "v2", Name: "Grande", Status: domain.ProductStatusInactive, Stock: 10},
	}
	catalog := &mockCatalog{products: map[string]*domain.Product{"p1": p}}
	v := NewValidator(catalog, zap.NewNop())

	it := item("a", "p1", 3)
	it.VariantID = "v1"
	result := v.ValidateCart(context.Background(), []domain.CartItem{it})
	// The variant's stock rules, not the product's.
	assert.Equal(t, domain.IssueInsufficientStock, result.Items[0].Issue)
	assert.Equal(t, 1, result.Items[0].AvailableStock)

	it.VariantID = "v2"
	it.Quantity = 1
	result = v.ValidateCart(context.Background(), []domain.CartItem{it})
	assert.Equal(t, domain.IssueUnavailable, result.Items[0].Issue)

	it.VariantID = "v-gone"
	result = v.ValidateCart(context.Background(), []domain.CartItem{it})
	assert.Equal(t, domain.IssueUnavailable, result.Items[0].Issue)
}

func TestValidateCartLookupFailureDoesNotAbortOthers(t *testing.T) {
	catalog := &mockCatalog{
		products: map[string]*domain.Product{
			"p1": activeProduct("p1", 10),
			"p3": activeProduct("p3", 10),
		},
		errs: map[string]error{"p2": errors.New("connection reset")},
	}
	v := NewValidator(catalog, zap.NewNop())

	result := v.ValidateCart(context.Background(), []domain.CartItem{
		item("a", "p1", 1),
		item("b", "p2", 1),
		item("c", "p3", 1),
	})

	require.Len(t, result.Items, 3)
	assert.Equal(t, domain.IssueNone, result.Items[0].Issue)
	assert.Equal(t, domain.IssueLookupFailed, result.Items[1].Issue)
	assert.Equal(t, domain.UnknownStock, result.Items[1].AvailableStock)
	assert.Equal(t, domain.IssueNone, result.Items[2].Issue)
	assert.True(t, result.HasIssues(), "a failed lookup blocks, it is never silently ok")
}

func TestValidateCartIsReadOnlyAndRepeatable(t *testing.T) {
	catalog := &mockCatalog{products: map[string]*domain.Product{
		"p1": activeProduct("p1", 5),
	}}
	v := NewValidator(catalog, zap.NewNop())
	items := []domain.CartItem{item("a", "p1", 2)}

	first := v.ValidateCart(context.Background(), items)
	second := v.ValidateCart(context.Background(), items)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, catalog.calls)
}
