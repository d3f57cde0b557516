package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/catalog"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
)

type ProductHandler struct {
	sessions *Sessions
	timeout  time.Duration
}

func NewProductHandler(sessions *Sessions, timeout time.Duration) *ProductHandler {
	return &ProductHandler{sessions: sessions, timeout: timeout}
}

// List proxies catalog browsing with pagination and filter flags.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := backend.ProductQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Featured: r.URL.Query().Get("featured") == "true",
		Combo:    r.URL.Query().Get("combo") == "true",
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("perPage")); err == nil && perPage > 0 {
		q.PerPage = perPage
	}

	result, err := h.sessions.deps.Backend.ListProducts(ctx, q)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// Suggest serves the debounced search-as-you-type. Rapid-fire calls from
// the same session supersede each other; a superseded call answers 204 so
// its stale results are never rendered.
func (h *ProductHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	key, _ := principal(r.Context())
	if key == "" {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondJSON(w, r, http.StatusOK, catalog.Result{Products: []domain.Product{}})
		return
	}

	searcher := h.sessions.Searcher(key)
	select {
	case result, ok := <-searcher.Search(r.Context(), query):
		if !ok {
			respondJSON(w, r, http.StatusNoContent, nil)
			return
		}
		respondJSON(w, r, http.StatusOK, result)
	case <-r.Context().Done():
		// Client went away; nothing to deliver.
	}
}
