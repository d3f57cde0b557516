// Package cart owns the authoritative local cart state for one session.
// All mutations go through the Store so the cart invariants hold: every
// line has quantity >= 1 and no two lines share a product+variant pair.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/cache"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrItemNotFound = errors.New("cart item not found")

// Syncer is the slice of the backend client the store needs to keep the
// server-held cart in step with the local one.
type Syncer interface {
	FetchCart(ctx context.Context) (*domain.Cart, error)
	AddCartLine(ctx context.Context, p backend.CartLinePayload) (*domain.CartItem, error)
	UpdateCartLine(ctx context.Context, itemID string, quantity int) error
	RemoveCartLine(ctx context.Context, itemID string) error
}

// Line describes a product to add to the cart.
type Line struct {
	Product  domain.Product
	Variant  *domain.ProductVariant
	Quantity int
}

// Store is the single source of truth for one session's cart. For
// authenticated sessions (non-empty userID) every mutation is synced to
// the server-held cart; guest sessions stay local until login.
type Store struct {
	mu    sync.Mutex
	items []domain.CartItem

	// seq tracks the latest accepted write per line, gen the latest
	// wholesale replacement. Together they let a failed or stale server
	// response tell whether it may still touch local state.
	seq map[string]uint64
	gen uint64

	backend   Syncer
	snapshots cache.CartCache // may be nil
	userID    string
	sfg       singleflight.Group
	log       *zap.Logger
}

func NewStore(syncer Syncer, snapshots cache.CartCache, userID string, log *zap.Logger) *Store {
	return &Store{
		seq:       make(map[string]uint64),
		backend:   syncer,
		snapshots: snapshots,
		userID:    userID,
		log:       log,
	}
}

func (s *Store) authenticated() bool {
	return s.userID != ""
}

// Fetch replaces local state with the server-held cart. It is idempotent,
// safe to call on every route change, and a no-op for guest sessions.
// Concurrent calls are collapsed into one request.
func (s *Store) Fetch(ctx context.Context) error {
	if !s.authenticated() {
		return nil
	}

	_, err, _ := s.sfg.Do("fetch", func() (any, error) {
		srv, err := s.backend.FetchCart(ctx)
		if err != nil {
			if errors.Is(err, backend.ErrNotAuthenticated) {
				return nil, nil
			}
			if s.recoverFromSnapshot(ctx) {
				s.log.Warn("cart fetch failed, serving cached snapshot", zap.Error(err))
				return nil, nil
			}
			return nil, err
		}

		s.replace(srv.Items)
		s.storeSnapshot()
		return nil, nil
	})
	return err
}

// recoverFromSnapshot restores the last cached cart snapshot when the
// backend is unreachable and there is no local state to preserve.
func (s *Store) recoverFromSnapshot(ctx context.Context) bool {
	s.mu.Lock()
	empty := len(s.items) == 0
	s.mu.Unlock()
	if !empty || s.snapshots == nil {
		return false
	}

	snap, err := s.snapshots.Get(ctx, s.userID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart snapshot get failed", zap.Error(err))
		}
		return false
	}
	s.replace(snap.Items)
	return true
}

func (s *Store) replace(items []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.CartItem(nil), items...)
	s.seq = make(map[string]uint64)
	s.gen++
}

// AddItem adds a product (with optional variant) to the cart. An existing
// line for the same product+variant pair gets its quantity increased
// instead of a duplicate being appended. The server call runs first so a
// failure leaves local and server state agreeing; the error is returned
// for the caller to surface.
func (s *Store) AddItem(ctx context.Context, l Line) (domain.CartItem, error) {
	qty := l.Quantity
	if qty < 1 {
		qty = 1
	}

	item := domain.CartItem{
		ProductID:    l.Product.ID,
		ProductName:  l.Product.Name,
		ProductSlug:  l.Product.Slug,
		ProductPrice: l.Product.Price,
		Quantity:     qty,
		AddedAt:      time.Now().UTC(),
	}
	if l.Variant != nil {
		item.VariantID = l.Variant.ID
		item.VariantName = l.Variant.Name
		item.VariantPrice = l.Variant.Price
	}

	s.mu.Lock()
	idx := s.findLine(item)
	var existing domain.CartItem
	if idx >= 0 {
		existing = s.items[idx]
	}
	s.mu.Unlock()

	if idx >= 0 {
		// Merge into the existing line rather than duplicating it.
		merged, err := s.UpdateQuantity(ctx, existing.ID, existing.Quantity+qty)
		if err != nil {
			return domain.CartItem{}, err
		}
		existing.Quantity = merged
		return existing, nil
	}

	if s.authenticated() {
		srv, err := s.backend.AddCartLine(ctx, backend.CartLinePayload{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
		if err != nil {
			return domain.CartItem{}, err
		}
		item.ID = srv.ID
		if srv.AddedAt.After(item.AddedAt) {
			item.AddedAt = srv.AddedAt
		}
	} else {
		item.ID = uuid.NewString()
	}

	s.mu.Lock()
	// Re-check under lock: a concurrent add may have created the line.
	if again := s.findLine(item); again >= 0 {
		s.items[again].Quantity += item.Quantity
		item = s.items[again]
	} else {
		s.items = append(s.items, item)
	}
	s.mu.Unlock()

	s.invalidateSnapshot()
	return item, nil
}

// UpdateQuantity sets a line's quantity, clamped at a minimum of 1.
// Decrementing to zero is not removal; RemoveItem is the explicit action
// for that. The local value is applied immediately so the latest user
// intent always wins; if the server call fails and no newer write has
// landed meanwhile, the previous value is restored. Returns the quantity
// the cart holds when the call finishes.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) (int, error) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	idx := s.findByID(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return 0, ErrItemNotFound
	}
	prev := s.items[idx].Quantity
	s.items[idx].Quantity = quantity
	s.seq[itemID]++
	mySeq := s.seq[itemID]
	myGen := s.gen
	s.mu.Unlock()

	if !s.authenticated() {
		return quantity, nil
	}

	if err := s.backend.UpdateCartLine(ctx, itemID, quantity); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Only roll back when this is still the newest write for the
		// line; a stale failure must not clobber newer local state.
		if s.gen == myGen && s.seq[itemID] == mySeq {
			if i := s.findByID(itemID); i >= 0 {
				s.items[i].Quantity = prev
			}
			return prev, err
		}
		return s.quantityOf(itemID), err
	}

	// A stale success may have reached the server after the newer write's
	// value; re-send the latest local value so the server converges on
	// the newest intent.
	applied := quantity
	s.mu.Lock()
	if s.gen == myGen && s.seq[itemID] != mySeq {
		if i := s.findByID(itemID); i >= 0 {
			applied = s.items[i].Quantity
		}
	}
	s.mu.Unlock()
	if applied != quantity {
		if err := s.backend.UpdateCartLine(ctx, itemID, applied); err != nil {
			s.log.Warn("cart line re-sync did not reach the server",
				zap.String("item_id", itemID), zap.Error(err))
		}
	}

	s.invalidateSnapshot()
	return applied, nil
}

// RemoveItem removes a line unconditionally, local-first. A failing
// server sync is surfaced but does not restore the line; the next Fetch
// reconciles.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	idx := s.findByID(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	delete(s.seq, itemID)
	s.mu.Unlock()

	if !s.authenticated() {
		return nil
	}

	if err := s.backend.RemoveCartLine(ctx, itemID); err != nil {
		s.log.Warn("cart line removal did not reach the server",
			zap.String("item_id", itemID), zap.Error(err))
		return err
	}

	s.invalidateSnapshot()
	return nil
}

// Clear empties the local cart. The checkout flow calls it exactly once,
// after the payment success callback; the backend clears its own cart as
// part of order completion.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	s.seq = make(map[string]uint64)
	s.gen++
	s.mu.Unlock()

	if s.snapshots != nil && s.authenticated() {
		if err := s.snapshots.Delete(ctx, s.userID); err != nil {
			s.log.Warn("cart snapshot delete failed", zap.Error(err))
		}
	}
	return nil
}

// Items returns a copy of the current lines in display order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.items...)
}

// ItemCount is the sum of quantities across lines, recomputed on demand.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Cart{Items: s.items}
	return c.ItemCount()
}

// Subtotal is recomputed from the current lines on every call.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Cart{Items: s.items}
	return c.Subtotal()
}

// findLine locates a line with the same product+variant pair. Callers
// hold s.mu.
func (s *Store) findLine(item domain.CartItem) int {
	for i, it := range s.items {
		if it.SameLine(item) {
			return i
		}
	}
	return -1
}

// findByID locates a line by id. Callers hold s.mu.
func (s *Store) findByID(itemID string) int {
	for i, it := range s.items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// quantityOf returns the current quantity of a line, 0 when gone.
// Callers hold s.mu.
func (s *Store) quantityOf(itemID string) int {
	if i := s.findByID(itemID); i >= 0 {
		return s.items[i].Quantity
	}
	return 0
}

// storeSnapshot caches the current cart off the request path.
func (s *Store) storeSnapshot() {
	if s.snapshots == nil || !s.authenticated() {
		return
	}
	snap := &domain.Cart{UserID: s.userID, Items: s.Items(), UpdatedAt: time.Now().UTC()}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.snapshots.Set(ctx, s.userID, snap); err != nil {
			s.log.Warn("cart snapshot set failed", zap.Error(err))
		}
	}()
}

// invalidateSnapshot drops the cached snapshot after a mutation so a
// stale copy is never served.
func (s *Store) invalidateSnapshot() {
	if s.snapshots == nil || !s.authenticated() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.snapshots.Delete(ctx, s.userID); err != nil {
		s.log.Warn("cart snapshot invalidate failed", zap.Error(err))
	}
}
