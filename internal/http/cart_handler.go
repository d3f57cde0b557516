package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/cart"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"github.com/Dasieloski/habaluna-storefront/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxLineQuantity bounds a single cart line.
const maxLineQuantity = 99

type CartHandler struct {
	sessions *Sessions
	timeout  time.Duration
}

func NewCartHandler(sessions *Sessions, timeout time.Duration) *CartHandler {
	return &CartHandler{sessions: sessions, timeout: timeout}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

type quantityResponse struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type validationResponse struct {
	Items     []domain.ItemValidation `json:"items"`
	HasIssues bool                    `json:"hasIssues"`
	Messages  []string                `json:"messages,omitempty"`
}

func (h *CartHandler) store(r *http.Request) (*cart.Store, bool) {
	key, userID := principal(r.Context())
	if key == "" {
		return nil, false
	}
	return h.sessions.Cart(key, userID), true
}

// GetCart refreshes from the server-held cart and returns the local view
// with its derived aggregates.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	if err := store.Fetch(ctx); err != nil {
		handleBackendError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, cartResponse{
		Items:     store.Items(),
		ItemCount: store.ItemCount(),
		Subtotal:  store.Subtotal(),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "cuerpo JSON inválido")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "productId es obligatorio")
		return
	}
	if req.Quantity < 1 || req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity debe estar entre 1 y 99")
		return
	}

	// Resolve the product so the line carries names and prices for the
	// derived aggregates.
	product, err := h.sessions.deps.Backend.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}

	line := cart.Line{Product: *product, Quantity: req.Quantity}
	if req.VariantID != "" {
		variant, found := product.Variant(req.VariantID)
		if !found {
			respondError(w, r, http.StatusNotFound, "not_found", "la variante seleccionada no existe")
			return
		}
		line.Variant = &variant
	}

	item, err := store.AddItem(ctx, line)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("cart line added",
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity))
	respondJSON(w, r, http.StatusCreated, item)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	itemID := chi.URLParam(r, "item_id")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "cuerpo JSON inválido")
		return
	}
	if req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity debe estar entre 1 y 99")
		return
	}

	// Values below 1 are clamped by the store, matching the disabled
	// decrement at quantity 1; removal is its own endpoint.
	applied, err := store.UpdateQuantity(ctx, itemID, req.Quantity)
	if errors.Is(err, cart.ErrItemNotFound) {
		respondError(w, r, http.StatusNotFound, "not_found", "el artículo no está en el carrito")
		return
	}
	if err != nil {
		handleBackendError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, quantityResponse{ItemID: itemID, Quantity: applied})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	itemID := chi.URLParam(r, "item_id")
	err := store.RemoveItem(ctx, itemID)
	if errors.Is(err, cart.ErrItemNotFound) {
		respondError(w, r, http.StatusNotFound, "not_found", "el artículo no está en el carrito")
		return
	}
	if err != nil {
		handleBackendError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusNoContent, nil)
}

// Validate runs the stock validation pass over the current cart. Invoked
// by the cart page on load and by the checkout page on entry.
func (h *CartHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	result := h.sessions.deps.Validator.ValidateCart(ctx, store.Items())
	respondJSON(w, r, http.StatusOK, validationResponse{
		Items:     result.Items,
		HasIssues: result.HasIssues(),
		Messages:  result.Messages(),
	})
}
