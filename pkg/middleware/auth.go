package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/response"
)

// Authenticate rejects requests without a valid bearer token. The verified
// identity is stored in the request context and the request logger gains a
// user_id attribute.
func Authenticate(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verify(r, v)
			if err != nil {
				msg := "Invalid token"
				switch {
				case errors.Is(err, auth.ErrMissingToken):
					msg = "Unauthorized"
				case errors.Is(err, auth.ErrRevokedToken):
					msg = "Token has been revoked"
				}
				response.Unauthorized(w, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r, id)))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// every request through.
func OptionalAuth(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := verify(r, v); err == nil {
				r = r.WithContext(withIdentity(r, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func verify(r *http.Request, v auth.Verifier) (*auth.Identity, error) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return v.Verify(r.Context(), token)
}

func withIdentity(r *http.Request, id *auth.Identity) context.Context {
	ctx := auth.WithIdentity(r.Context(), id)
	return logger.With(ctx, "user_id", id.UserID)
}
