package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// NewRouter wires the storefront API surface.
func NewRouter(sessions *Sessions, timeout time.Duration, log *zap.Logger) http.Handler {
	carts := NewCartHandler(sessions, timeout)
	checkouts := NewCheckoutHandler(sessions, timeout)
	wishlists := NewWishlistHandler(sessions, timeout)
	products := NewProductHandler(sessions, timeout)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Session)
	r.Use(Logging(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", carts.GetCart)
		r.Get("/validation", carts.Validate)
		r.Post("/items", carts.AddItem)
		r.Patch("/items/{item_id}", carts.UpdateQuantity)
		r.Delete("/items/{item_id}", carts.RemoveItem)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", checkouts.State)
		r.Post("/shipping", checkouts.SubmitShipping)
		r.Post("/payment", checkouts.PaymentCallback)
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Get("/", wishlists.GetWishlist)
		r.Post("/", wishlists.Add)
		r.Delete("/{product_id}", wishlists.Remove)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Get("/suggest", products.Suggest)
	})

	return otelhttp.NewHandler(r, "storefront")
}
