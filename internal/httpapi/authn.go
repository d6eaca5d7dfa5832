package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/camelloncase/participa-auth/internal/auth"
	"github.com/camelloncase/participa-auth/internal/obs"
)

const authHeader = "Authorization"

var publicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh-token",
	"/api/v1/auth/forgot-password",
	"/api/v1/auth/reset-password",
}

// withAuth verifies the bearer token on protected routes and attaches the
// resolved account to the request context. A request without an
// Authorization header passes through unauthenticated; a request with a bad
// one is rejected before it reaches any handler.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(authHeader)
		if strings.TrimSpace(header) == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.ExtractBearerToken(header)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		account, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			obs.ObserveTokenVerification("rejected")
			switch {
			case errors.Is(err, auth.ErrTokenMalformed),
				errors.Is(err, auth.ErrSignatureInvalid),
				errors.Is(err, auth.ErrTokenExpired),
				errors.Is(err, auth.ErrInvalidToken):
				writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}
		obs.ObserveTokenVerification("ok")

		ctx := auth.ContextWithAccount(r.Context(), account)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
