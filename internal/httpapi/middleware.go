package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pranaynookala001/securedocs/internal/models"
	"github.com/pranaynookala001/securedocs/internal/token"
)

type contextKey int

const identityKey contextKey = iota

// Identity is the authenticated caller, as carried by a valid access
// token. No store lookup happens in the guard; handlers that need the
// full profile load it themselves.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
	Role     models.Role
}

// IdentityFrom extracts the caller from the request context. The guard
// puts it there; ok is false on unguarded routes.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequireAuth is the bearer guard: it validates the access token
// statelessly and rejects with the generic unauthorized body otherwise.
func RequireAuth(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respondMessage(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				respondMessage(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				respondMessage(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			identity := Identity{
				UserID:   userID,
				Username: claims.Name,
				Email:    claims.Email,
				Role:     models.Role(claims.Role),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || value == "" {
		return "", false
	}
	return value, true
}
