// Package stock reconciles cart lines against live catalog availability.
package stock

import (
	"context"
	"errors"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"go.uber.org/zap"
)

// CatalogLookup resolves a product with live stock. Satisfied by the
// backend client.
type CatalogLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Validator classifies each cart line against the catalog. It performs
// reads only and is safe to run repeatedly; checkout re-validates rather
// than trusting an earlier snapshot.
type Validator struct {
	catalog CatalogLookup
	log     *zap.Logger
}

func NewValidator(catalog CatalogLookup, log *zap.Logger) *Validator {
	return &Validator{catalog: catalog, log: log}
}

// ValidateCart produces one entry per line. A failing lookup on one line
// never aborts the rest; that line is classified IssueLookupFailed, which
// blocks checkout like any other issue.
func (v *Validator) ValidateCart(ctx context.Context, items []domain.CartItem) domain.ValidationResult {
	result := domain.ValidationResult{
		Items: make([]domain.ItemValidation, 0, len(items)),
	}

	for _, item := range items {
		entry := domain.ItemValidation{
			ItemID:         item.ID,
			AvailableStock: domain.UnknownStock,
			ProductName:    item.ProductName,
			VariantName:    item.VariantName,
		}

		product, err := v.catalog.GetProduct(ctx, item.ProductID)
		switch {
		case errors.Is(err, backend.ErrNotFound):
			entry.Issue = domain.IssueUnavailable
		case err != nil:
			v.log.Warn("stock lookup failed",
				zap.String("product_id", item.ProductID), zap.Error(err))
			entry.Issue = domain.IssueLookupFailed
		default:
			entry.Issue, entry.AvailableStock = classify(product, item)
		}

		result.Items = append(result.Items, entry)
	}

	return result
}

// classify resolves the availability source (variant over product) and
// maps stock against the requested quantity.
func classify(p *domain.Product, item domain.CartItem) (domain.ValidationIssue, int) {
	available := p.Stock
	active := p.IsActive()

	if item.VariantID != "" {
		variant, ok := p.Variant(item.VariantID)
		if !ok {
			return domain.IssueUnavailable, domain.UnknownStock
		}
		available = variant.Stock
		active = active && variant.IsActive()
	}

	switch {
	case !active:
		return domain.IssueUnavailable, available
	case available == 0:
		return domain.IssueOutOfStock, 0
	case available < item.Quantity:
		return domain.IssueInsufficientStock, available
	default:
		return domain.IssueNone, available
	}
}
