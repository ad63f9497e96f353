package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/service"
	"github.com/YK-03/SharePlate/pkg/apierror"
)

// UserKey is the context key for the authenticated user.
const UserKey contextKey = "user"

// TokenValidator resolves an API token to its user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// NewAuthMiddleware rejects requests without a valid token and stores the
// resolved user in the request context.
func NewAuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				apierror.Unauthorized("Authentication credentials were not provided.").Write(w)
				return
			}

			user, err := tokens.ValidateToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					apierror.Unauthorized("Invalid token.").Write(w)
					return
				}
				apierror.ServiceUnavailable("").Write(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// TokenFromRequest extracts a token from "Authorization: Token <t>",
// "Authorization: Bearer <t>" or X-Token.
func TokenFromRequest(r *http.Request) string {
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		scheme, value, ok := strings.Cut(auth, " ")
		if ok && (strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer")) {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Token"))
}

// WithUser returns ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext returns the authenticated user or nil.
func UserFromContext(ctx context.Context) *model.User {
	if u, ok := ctx.Value(UserKey).(*model.User); ok {
		return u
	}
	return nil
}

// RequireLoginKey guards admin endpoints with the X-Login-Key header. An
// empty key disables the endpoints.
func RequireLoginKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				apierror.Forbidden("Admin access is not configured.").Write(w)
				return
			}
			given := r.Header.Get("X-Login-Key")
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				apierror.Unauthorized("Invalid login key.").Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
