package middleware

import (
	"net/http"
	"slices"

	"academy-portal/internal/auth"
	"academy-portal/internal/models"
)

// RequireAnyRole checks that the staff token carries one of roleNames.
// Admins pass every check. Must run after Authenticate.
func RequireAnyRole(roleNames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r)
			if !ok || claims.Kind != auth.KindStaff {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}
			if !HasAnyRole(claims.Roles, roleNames...) {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HasAnyRole reports whether held grants one of required
func HasAnyRole(held []string, required ...string) bool {
	if slices.Contains(held, models.RoleAdmin) {
		return true
	}
	for _, r := range required {
		if slices.Contains(held, r) {
			return true
		}
	}
	return false
}
