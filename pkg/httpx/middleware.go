package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/cobaltlane/sentinel/pkg/jwtx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

type Middleware func(http.Handler) http.Handler

// Chain wraps h with the given middlewares, outermost first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// AccessVerifier validates a bearer access token and returns its claims.
type AccessVerifier interface {
	VerifyAccess(token string) (*jwtx.AccessClaims, error)
}

// AuthnMiddleware verifies the Authorization bearer token and injects the
// principal id and role snapshot into the request context.
func AuthnMiddleware(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.VerifyAccess(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyPrincipalID, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyRoles, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
