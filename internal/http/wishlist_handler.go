package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/wishlist"
	"github.com/go-chi/chi/v5"
)

type WishlistHandler struct {
	sessions *Sessions
	timeout  time.Duration
}

func NewWishlistHandler(sessions *Sessions, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{sessions: sessions, timeout: timeout}
}

type addWishlistRequest struct {
	ProductID string `json:"productId"`
}

// store resolves the session's wishlist store. The wishlist is an
// authenticated-only surface.
func (h *WishlistHandler) store(w http.ResponseWriter, r *http.Request) (*wishlist.Store, string, bool) {
	key, userID := principal(r.Context())
	if userID == "" {
		respondError(w, r, http.StatusUnauthorized, "login_required", "inicia sesión para usar tu lista de deseos")
		return nil, "", false
	}
	return h.sessions.Wishlist(key), key, true
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, _, ok := h.store(w, r)
	if !ok {
		return
	}

	if err := store.Fetch(ctx); err != nil {
		handleBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, store.Items())
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, _, ok := h.store(w, r)
	if !ok {
		return
	}

	var req addWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "cuerpo JSON inválido")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "productId es obligatorio")
		return
	}

	item, err := store.Add(ctx, req.ProductID)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, item)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, _, ok := h.store(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "product_id")
	err := store.Remove(ctx, productID)
	if errors.Is(err, wishlist.ErrItemNotFound) {
		respondError(w, r, http.StatusNotFound, "not_found", "el producto no está en tu lista de deseos")
		return
	}
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
