package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/folio/internal/session"
	"github.com/gosuda/folio/internal/tenant"
)

// Header names exposing the resolved tenant to the SPA.
const (
	HeaderTenantSlug = "X-Folio-Tenant"
	HeaderTenantID   = "X-Folio-Tenant-Id"
)

// ResolveTenant runs the tenant resolver on an unprefixed page path before
// the page handler. A reserved first segment clears the tenant scope.
func ResolveTenant(resolver *tenant.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
			out := resolver.Resolve(r.Context(), sess.State, tenant.Segments(r.URL.Path))
			proceed(next, w, r, sess, out)
		})
	}
}

// ResolvePrefixedTenant runs the resolver on /{slug}/... paths. A reserved
// word in the slug position is not a tenant and goes to the wildcard guard.
func ResolvePrefixedTenant(resolver *tenant.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
			out := resolver.ResolvePrefixed(r.Context(), sess.State, tenant.Segments(r.URL.Path))
			proceed(next, w, r, sess, out)
		})
	}
}

// ClearTenant resets the tenant scope for routes that never carry a slug.
func ClearTenant(clear *tenant.ClearResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return withSession(func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
			proceed(next, w, r, sess, clear.Resolve(r.Context(), sess.State))
		})
	}
}

// RequireTenant rejects requests whose session has no tenant in scope,
// including requests with no session at all.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var snap tenant.Snapshot
			if sess, ok := SessionFromContext(r.Context()); ok {
				snap = sess.State.Snapshot()
			}
			if !snap.Bound() {
				http.Error(w, `{"title":"Not Found","status":404,"detail":"no tenant in scope"}`, http.StatusNotFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyTenant, snap)))
		})
	}
}

func withSession(fn func(http.ResponseWriter, *http.Request, *session.Session)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			log.Error().Str("path", r.URL.Path).Msg("middleware: session middleware not installed")
			http.Error(w, `{"title":"Internal Server Error","status":500,"detail":"session unavailable"}`, http.StatusInternalServerError)
			return
		}
		fn(w, r, sess)
	})
}

func proceed(next http.Handler, w http.ResponseWriter, r *http.Request, sess *session.Session, out tenant.Outcome) {
	if !out.Accepted() {
		WriteOutcome(w, r, out)
		return
	}

	snap := sess.State.Snapshot()
	if snap.Bound() {
		w.Header().Set(HeaderTenantSlug, snap.Slug)
		w.Header().Set(HeaderTenantID, strconv.FormatInt(snap.UserID, 10))
	}
	next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyTenant, snap)))
}
