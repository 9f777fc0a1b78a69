package middleware

import (
	"context"
	"net/http"

	"github.com/mswierczewski/socialwall/internal/http/response"
	"github.com/mswierczewski/socialwall/internal/observability"
	"github.com/mswierczewski/socialwall/internal/security"
	"github.com/mswierczewski/socialwall/internal/service"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	tokenContextKey    contextKey = "token"
)

// TokenValidator is what the request filter needs from the session service.
type TokenValidator interface {
	Validate(ctx context.Context, token string, fp security.Fingerprint) (*service.Identity, error)
}

// Authenticate is the per-request boundary. A request without a bearer token
// passes through anonymous; a request with one must validate or is rejected.
// Validation failure kinds are audited but the response is always the same
// 401, so a probing client cannot tell which check failed.
func Authenticate(sessions TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := service.TokenFromHeader(r.Header)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := sessions.Validate(r.Context(), token, security.FingerprintFromRequest(r))
			if err != nil {
				observability.Audit(r, "token_rejected", "reason", err.Error())
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing token", nil)
				return
			}
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that Authenticate let through anonymous.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthority gates a route on a role snapshot carried by the token.
func RequireAuthority(authority string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing token", nil)
				return
			}
			if !identity.HasAuthority(authority) {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient authority", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func IdentityFromContext(ctx context.Context) (*service.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*service.Identity)
	return id, ok
}

// TokenFromContext returns the raw bearer token that authenticated the
// request; sign-out needs it to know which record to revoke.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
