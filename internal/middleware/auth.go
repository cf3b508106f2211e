package middleware

import (
	"net/http"
	"strings"

	"expense-tracker-api/internal/auth"
	"expense-tracker-api/internal/http/respond"
)

const bearerPrefix = "Bearer "

// RequireAuth verifies the bearer token on every request before any handler
// runs and stores the verified claims in the request context. Requests
// without a valid token are rejected with 401.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				respond.Error(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := tokens.Parse(strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}
