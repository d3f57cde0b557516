package http

import (
	"sync"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/cache"
	"github.com/Dasieloski/habaluna-storefront/internal/cart"
	"github.com/Dasieloski/habaluna-storefront/internal/catalog"
	"github.com/Dasieloski/habaluna-storefront/internal/checkout"
	"github.com/Dasieloski/habaluna-storefront/internal/stock"
	"github.com/Dasieloski/habaluna-storefront/internal/wishlist"
	"go.uber.org/zap"
)

// Deps are the shared collaborators behind every session.
type Deps struct {
	Backend   *backend.Client
	Snapshots cache.CartCache
	Validator *stock.Validator
	Events    checkout.Publisher
	Log       *zap.Logger
}

// Sessions lazily builds and holds the per-session stores. The cart is
// mutable shared state read from several surfaces (badge, cart page,
// checkout); keeping exactly one store per session key preserves the
// no-duplicate-line invariant across them.
type Sessions struct {
	mu        sync.Mutex
	deps      Deps
	carts     map[string]*cart.Store
	wishlists map[string]*wishlist.Store
	checkouts map[string]*checkout.Session
	searchers map[string]*catalog.Searcher
}

func NewSessions(deps Deps) *Sessions {
	return &Sessions{
		deps:      deps,
		carts:     make(map[string]*cart.Store),
		wishlists: make(map[string]*wishlist.Store),
		checkouts: make(map[string]*checkout.Session),
		searchers: make(map[string]*catalog.Searcher),
	}
}

func (s *Sessions) Cart(key, userID string) *cart.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.carts[key]; ok {
		return st
	}
	st := cart.NewStore(s.deps.Backend, s.deps.Snapshots, userID, s.deps.Log)
	s.carts[key] = st
	return st
}

func (s *Sessions) Wishlist(key string) *wishlist.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.wishlists[key]; ok {
		return st
	}
	st := wishlist.NewStore(s.deps.Backend, s.deps.Log)
	s.wishlists[key] = st
	return st
}

// Checkout returns the session's active checkout, creating one bound to
// its cart when none exists.
func (s *Sessions) Checkout(key, userID string) *checkout.Session {
	cartStore := s.Cart(key, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.checkouts[key]; ok {
		return cs
	}
	cs := checkout.NewSession(userID, cartStore, s.deps.Validator, s.deps.Backend, s.deps.Events, s.deps.Log)
	s.checkouts[key] = cs
	return cs
}

// FinishCheckout drops a completed checkout so the session can start a
// fresh one.
func (s *Sessions) FinishCheckout(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkouts, key)
}

func (s *Sessions) Searcher(key string) *catalog.Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sr, ok := s.searchers[key]; ok {
		return sr
	}
	sr := catalog.NewSearcher(s.deps.Backend, s.deps.Log)
	s.searchers[key] = sr
	return sr
}
