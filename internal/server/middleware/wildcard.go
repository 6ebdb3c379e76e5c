package middleware

import (
	"net/http"

	"github.com/gosuda/folio/internal/tenant"
)

// Wildcard is the catch-all for paths no route matched. It always redirects
// to a known landing page.
func Wildcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteOutcome(w, r, tenant.WildcardGuard(tenant.Segments(r.URL.Path)))
	}
}
