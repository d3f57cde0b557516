// Package wishlist owns the session's saved-products list. It is a
// simpler sibling of the cart store: no quantities, unique per product.
package wishlist

import (
	"context"
	"errors"
	"sync"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"github.com/Dasieloski/habaluna-storefront/internal/optimistic"
	"go.uber.org/zap"
)

var ErrItemNotFound = errors.New("wishlist item not found")

// Syncer is the slice of the backend client the store needs.
type Syncer interface {
	FetchWishlist(ctx context.Context) ([]domain.WishlistItem, error)
	AddWishlistItem(ctx context.Context, productID string) (*domain.WishlistItem, error)
	RemoveWishlistItem(ctx context.Context, productID string) error
}

// Store keeps the local wishlist for one authenticated session.
type Store struct {
	mu      sync.Mutex
	items   []domain.WishlistItem
	backend Syncer
	log     *zap.Logger
}

func NewStore(syncer Syncer, log *zap.Logger) *Store {
	return &Store{backend: syncer, log: log}
}

// Fetch replaces local state with the server wishlist. Idempotent.
func (s *Store) Fetch(ctx context.Context) error {
	items, err := s.backend.FetchWishlist(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Add saves a product. Adding a product that is already present is a
// no-op, never a duplicate.
func (s *Store) Add(ctx context.Context, productID string) (domain.WishlistItem, error) {
	s.mu.Lock()
	if idx := s.find(productID); idx >= 0 {
		item := s.items[idx]
		s.mu.Unlock()
		return item, nil
	}
	s.mu.Unlock()

	srv, err := s.backend.AddWishlistItem(ctx, productID)
	if err != nil {
		return domain.WishlistItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.find(productID); idx >= 0 {
		return s.items[idx], nil
	}
	s.items = append(s.items, *srv)
	return *srv, nil
}

// Remove deletes a product local-first; a failed server sync restores the
// item and surfaces the error for the caller to toast.
func (s *Store) Remove(ctx context.Context, productID string) error {
	s.mu.Lock()
	idx := s.find(productID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	removed := s.items[idx]
	s.mu.Unlock()

	return optimistic.Update(ctx,
		func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if i := s.find(productID); i >= 0 {
				s.items = append(s.items[:i], s.items[i+1:]...)
			}
		},
		func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.find(productID) < 0 {
				s.items = append(s.items, removed)
			}
		},
		func(ctx context.Context) error {
			return s.backend.RemoveWishlistItem(ctx, productID)
		},
	)
}

// Items returns a copy of the current wishlist.
func (s *Store) Items() []domain.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.WishlistItem(nil), s.items...)
}

// Has reports whether a product is saved.
func (s *Store) Has(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(productID) >= 0
}

// find locates a product. Callers hold s.mu.
func (s *Store) find(productID string) int {
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
