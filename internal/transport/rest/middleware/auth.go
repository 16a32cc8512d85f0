package middleware

import (
	"bingohall/internal/model"
	"bingohall/internal/service"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const IdentityKey contextKey = "identity"

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	auth service.TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth service.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireUser validates the bearer JWT and stores the identity in the request context
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		id, err := m.auth.Verify(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the caller identity from context
func GetIdentity(ctx context.Context) *model.Identity {
	if v, ok := ctx.Value(IdentityKey).(*model.Identity); ok {
		return v
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
