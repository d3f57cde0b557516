package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/logging"
)

// ErrorResponse is the JSON error envelope served to storefront clients.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.FromContext(r.Context()).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message, Code: code})
}

// handleBackendError maps client errors to HTTP responses. Every backend
// failure already carries a human-readable message; nothing raw leaks.
func handleBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var be *backend.Error
	switch {
	case errors.Is(err, backend.ErrNotAuthenticated):
		// Terminal local condition: no request was attempted, the client
		// should redirect to login.
		respondError(w, r, http.StatusUnauthorized, "login_required", "inicia sesión para continuar")
	case errors.Is(err, backend.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &be):
		status := be.Status
		if status >= 500 {
			status = http.StatusBadGateway
		}
		respondError(w, r, status, "backend_error", be.Message)
	default:
		respondError(w, r, http.StatusInternalServerError, "internal_error", "algo salió mal, inténtalo de nuevo")
	}
}
