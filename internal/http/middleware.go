package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	sessionKey   contextKey = "session_id"
)

// RequestID assigns every request an id, honoring one set by an upstream
// proxy.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Session extracts the caller identity. The auth proxy in front of this
// service verifies tokens and forwards the user id; the raw bearer token
// is carried along for backend calls. Anonymous callers are identified by
// their session id only.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			ctx = backend.WithToken(ctx, strings.TrimPrefix(auth, "Bearer "))
		}
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			ctx = context.WithValue(ctx, userIDKey, userID)
		}
		if sessionID := r.Header.Get("X-Session-ID"); sessionID != "" {
			ctx = context.WithValue(ctx, sessionKey, sessionID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging attaches a request-scoped zap logger and records each request.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With(
				zap.String("request_id", getRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			ctx := logging.WithContext(r.Context(), reqLog)
			next.ServeHTTP(w, r.WithContext(ctx))
			reqLog.Info("request handled", zap.Duration("took", time.Since(start)))
		})
	}
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func getUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// principal keys the per-session stores: the user id when authenticated,
// otherwise the anonymous session id.
func principal(ctx context.Context) (key, userID string) {
	userID = getUserID(ctx)
	if userID != "" {
		return "user:" + userID, userID
	}
	if sid, ok := ctx.Value(sessionKey).(string); ok && sid != "" {
		return "anon:" + sid, ""
	}
	return "", ""
}
