package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"academy-portal/internal/auth"
	"academy-portal/internal/models"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenValidator parses and verifies access tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthMiddleware validates JWT tokens
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func (m *AuthMiddleware) require(kind string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if claims.Kind != kind {
			respondWithError(w, http.StatusForbidden, "Token not valid for this resource")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Authenticate requires a staff token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return m.require(auth.KindStaff, next)
}

// AuthenticateCandidate requires a token issued by a private competition login
func (m *AuthMiddleware) AuthenticateCandidate(next http.Handler) http.Handler {
	return m.require(auth.KindCandidate, next)
}

// OptionalAuth attaches claims when a valid token is present but doesn't require it
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := m.tokens.ValidateToken(token); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims stores claims in ctx
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves the token claims from the request context
func GetClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// GetUserID retrieves the staff user ID from the request context
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := GetClaims(r)
	if !ok || claims.Kind != auth.KindStaff {
		return uuid.Nil, false
	}
	id, err := claims.SubjectID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetInvitationID retrieves the invitation behind a candidate token
func GetInvitationID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := GetClaims(r)
	if !ok || claims.Kind != auth.KindCandidate {
		return uuid.Nil, false
	}
	id, err := claims.SubjectID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Actor describes the authenticated staff member for activity logging.
// The role is the most privileged one held.
func Actor(r *http.Request) models.Actor {
	claims, ok := GetClaims(r)
	if !ok || claims.Kind != auth.KindStaff {
		return models.Actor{Email: "anonymous", Role: "public"}
	}
	actor := models.Actor{Email: claims.Email, Role: primaryRole(claims.Roles)}
	if id, err := claims.SubjectID(); err == nil {
		actor.UserID = &id
	}
	return actor
}

func primaryRole(roles []string) string {
	for _, want := range []string{models.RoleAdmin, models.RoleInstructor, models.RoleReviewer} {
		for _, r := range roles {
			if r == want {
				return r
			}
		}
	}
	if len(roles) > 0 {
		return roles[0]
	}
	return ""
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
