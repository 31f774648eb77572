package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
)

type contextKey struct{}

var userContextKey = contextKey{}

// requireAuth resolves the bearer token to a user and stores it on the
// request context. Requests without a valid access token are rejected.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			h.respondError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		user, err := h.authUsecase.GetUserFromAccessToken(r.Context(), parts[1])
		if err != nil {
			h.respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the user placed there by requireAuth.
func userFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok
}
