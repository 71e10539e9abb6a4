package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/lzhoang/userbase-be/internal/auth"
	"github.com/lzhoang/userbase-be/internal/directory"
	"github.com/lzhoang/userbase-be/internal/http/respond"
	"github.com/lzhoang/userbase-be/internal/models"
)

type requesterContextKey struct{}

// RequesterFromContext returns the authenticated user attached by the guard.
func RequesterFromContext(ctx context.Context) (models.PublicUser, bool) {
	user, ok := ctx.Value(requesterContextKey{}).(models.PublicUser)
	return user, ok
}

// Guard authenticates requests: it extracts the bearer token, verifies it,
// and resolves the subject into a live user record. Role checks against a
// target stay with the individual handlers.
type Guard struct {
	tokens *auth.TokenManager
	users  *directory.Directory
}

// NewGuard constructs a guard over the given token manager and directory.
func NewGuard(tokens *auth.TokenManager, users *directory.Directory) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Require rejects the request unless it carries a valid token for an existing
// user; on success the resolved user is attached to the request context.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "no token, authorization denied")
			return
		}

		userID, err := g.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				respond.Error(w, http.StatusUnauthorized, "token has expired")
				return
			}
			respond.Error(w, http.StatusUnauthorized, "token is not valid")
			return
		}

		user, err := g.users.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				// Deleted users lose access immediately, unexpired token or not.
				respond.Error(w, http.StatusUnauthorized, "user for this token no longer exists")
				return
			}
			log.Printf("auth guard: resolve user %s: %v", userID, err)
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), requesterContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
