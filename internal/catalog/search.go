// Package catalog provides the debounced search-as-you-type service for
// product suggestions.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"go.uber.org/zap"
)

// DefaultDebounce matches the reference behavior of waiting for the user
// to pause typing before firing a catalog query.
const DefaultDebounce = 250 * time.Millisecond

// ProductLister is the slice of the backend client the searcher needs.
type ProductLister interface {
	ListProducts(ctx context.Context, q backend.ProductQuery) (*backend.ProductPage, error)
}

// Result is one delivered suggestion set. Products is empty (never nil)
// when the lookup failed; suggestions are a non-critical surface.
type Result struct {
	Query    string
	Products []domain.Product
}

// Searcher debounces queries and guarantees that only the latest query's
// response is ever delivered: each call supersedes the previous one, and
// a superseded call's channel is closed without a value.
type Searcher struct {
	mu       sync.Mutex
	products ProductLister
	debounce time.Duration
	limit    int
	log      *zap.Logger

	gen     uint64
	timer   *time.Timer
	pending chan Result
	closed  bool
}

func NewSearcher(products ProductLister, log *zap.Logger) *Searcher {
	return &Searcher{
		products: products,
		debounce: DefaultDebounce,
		limit:    8,
		log:      log,
	}
}

// Search schedules a suggestion lookup for the query. The returned
// channel yields exactly one Result, or closes empty when a newer query
// supersedes this one or the searcher is closed.
func (s *Searcher) Search(ctx context.Context, query string) <-chan Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Supersede any in-flight query: stop its timer if it has not fired
	// and close its channel so waiters stop blocking.
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.pending != nil {
		close(s.pending)
	}

	ch := make(chan Result, 1)
	s.pending = ch

	if s.closed {
		close(ch)
		s.pending = nil
		return ch
	}

	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, gen, query, ch)
	})
	return ch
}

// run fires the catalog query after the debounce window. The generation
// check before delivery guarantees an older response never clobbers a
// newer query's results.
func (s *Searcher) run(ctx context.Context, gen uint64, query string, ch chan Result) {
	page, err := s.products.ListProducts(ctx, backend.ProductQuery{
		Search:  query,
		PerPage: s.limit,
	})

	products := []domain.Product{}
	if err != nil {
		s.log.Warn("product suggestions lookup failed",
			zap.String("query", query), zap.Error(err))
	} else {
		products = page.Items
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.closed {
		// A newer query superseded this one; its channel is already
		// closed.
		return
	}
	ch <- Result{Query: query, Products: products}
	close(ch)
	s.pending = nil
}

// Close cancels any scheduled query; in-flight responses are dropped.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.pending != nil {
		close(s.pending)
		s.pending = nil
	}
}
