package middleware

import (
	"context"
	"net/http"

	"github.com/gosuda/folio/internal/session"
)

// Sessions attaches the visitor's session to the request context, creating
// one (and its cookie) on first contact.
func Sessions(reg *session.Registry, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *session.Session
			if c, err := r.Cookie(session.CookieName); err == nil {
				sess, _ = reg.Get(c.Value)
			}
			if sess == nil {
				sess = reg.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadSession attaches an existing session, if the request carries one, and
// never creates a new one.
func LoadSession(reg *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(session.CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sess, ok := reg.Get(c.Value)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, sess)))
		})
	}
}
