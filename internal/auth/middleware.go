package auth

import (
	"context"
	"net/http"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type contextKey string

const claimsKey contextKey = "staff_claims"

// Middleware rejects requests without a verified staff token and stores the
// claims in the request context for handlers.
func Middleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("unauthorized", "auth_error"))
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("unauthorized", "auth_error"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the verified claims the middleware stored, if any.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// RequireAdmin rejects authenticated requests whose token does not carry the
// admin role. Must be mounted after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || claims.Role != models.RoleAdmin {
			utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("admin access required", "forbidden"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
