package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/httperr"
	"github.com/bookly/bookly-api/internal/models"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	// UserContextKey holds the resolved *models.User of an authenticated request.
	UserContextKey contextKey = "user"
	// ClaimsContextKey holds the *auth.SessionClaims of the presented token.
	ClaimsContextKey contextKey = "claims"
)

// Authenticator is the part of auth.Service the middleware needs.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*models.User, *auth.SessionClaims, error)
	Authorize(user *models.User, roles ...models.Role) error
}

// Credentials splits the Authorization header into scheme and token. A
// missing header or one without both parts yields httperr.ErrNotAuthenticated.
func Credentials(r *http.Request) (auth.Credentials, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return auth.Credentials{}, httperr.ErrNotAuthenticated
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return auth.Credentials{}, httperr.ErrNotAuthenticated
	}
	return auth.Credentials{Scheme: parts[0], Token: parts[1]}, nil
}

// RequireAccess admits requests carrying a live, unrevoked access token of an
// existing user, and stores the user and claims in the request context.
func RequireAccess(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, err := Credentials(r)
			if err != nil {
				httperr.Write(w, err)
				return
			}
			user, claims, err := a.Authenticate(r.Context(), creds)
			if err != nil {
				httperr.Write(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles must run after RequireAccess.
func RequireRoles(a Authenticator, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := GetUser(r.Context())
			if err := a.Authorize(user, roles...); err != nil {
				httperr.Write(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser extracts the authenticated user from the request context.
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// GetClaims extracts token claims from the request context.
func GetClaims(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.SessionClaims)
	return claims, ok
}
