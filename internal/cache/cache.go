package cache

import (
	"context"
	"errors"

	"github.com/Dasieloski/habaluna-storefront/internal/domain"
)

// CartCache holds short-lived snapshots of server-held carts so a session
// keeps its cart view when the backend is briefly unreachable.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
