package middleware

import (
	"net/http"
	"strings"

	"github.com/gosuda/folio/internal/tenant"
)

// WriteOutcome answers a navigation that was not accepted. Replace-style
// redirects use 302; plain redirects use 303 so the original request is not
// replayed. A block without a target means the navigation was superseded.
func WriteOutcome(w http.ResponseWriter, r *http.Request, out tenant.Outcome) {
	switch out.Kind {
	case tenant.KindAccept:
		return
	case tenant.KindRedirect, tenant.KindBlock:
		if out.Path == "" {
			http.Error(w, `{"title":"Conflict","status":409,"detail":"navigation superseded"}`, http.StatusConflict)
			return
		}

		target := out.Path
		// A case-normalizing redirect keeps the query string.
		if r.URL.RawQuery != "" && !strings.Contains(target, "?") && strings.EqualFold(target, r.URL.Path) {
			target += "?" + r.URL.RawQuery
		}

		code := http.StatusSeeOther
		if out.Replace {
			code = http.StatusFound
		}
		http.Redirect(w, r, target, code)
	}
}
