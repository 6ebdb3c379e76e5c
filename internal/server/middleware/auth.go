package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/folio/internal/auth"
	"github.com/gosuda/folio/internal/tenant"
)

// TokenCookieName carries the owner credential for browser navigations.
const TokenCookieName = "folio_token"

// Authenticate validates the owner credential when one is presented and
// stores its claims in the request context. It never rejects a request;
// RequireOwner does the gating.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractCredential(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tok)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("auth: credential rejected")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner gates private pages behind a valid owner credential. Must be
// chained after Authenticate.
func RequireOwner() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := ClaimsFromContext(r.Context())
			out := tenant.AuthGuard(ok)
			if !out.Accepted() {
				WriteOutcome(w, r, out)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerRefresher re-derives the session's owner flag from the request
// credential. It is registered on the ClearResolver.
func OwnerRefresher() tenant.OwnerRefresher {
	return tenant.OwnerRefresherFunc(func(ctx context.Context) {
		sess, ok := SessionFromContext(ctx)
		if !ok {
			return
		}
		_, owner := ClaimsFromContext(ctx)
		sess.SetOwner(owner)
	})
}

func extractCredential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}
