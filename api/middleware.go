package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// userIDHeader carries the platform user id injected by the webview bridge.
const userIDHeader = "X-Max-User-ID"

type contextKey string

// ContextKeyUserID holds the validated platform user id.
const ContextKeyUserID contextKey = "maxUserID"

// GetUserID returns the platform user id from the request context, empty when
// the request did not pass UserIdentityMiddleware.
func GetUserID(r *http.Request) string {
	if id, ok := r.Context().Value(ContextKeyUserID).(string); ok {
		return id
	}
	return ""
}

// UserIdentityMiddleware validates the platform identity header. The platform
// injects it on every webview request; a request without it never came through
// the bridge.
func UserIdentityMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Always allow OPTIONS for CORS
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "user identity required"})
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
