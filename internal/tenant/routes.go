// Package tenant decides, for every navigation, whose portfolio is in scope.
//
// A path is either served for the site owner (no prefix, /about) or for a
// visited tenant (slug prefix, /johndoe/about). The Resolver classifies the
// first path segment, resolves slugs to backend user ids through a
// ProfileFetcher, and records the result in a per-session State that guards
// and link builders read for the rest of the navigation.
package tenant

import (
	"strings"
	"unicode"
)

// Application pages that are never tenant slugs.
const (
	PageHome            = "home"
	PageAbout           = "about"
	PageCurriculum      = "curriculum"
	PageProjects        = "progetti"
	PageCertificates    = "certificati"
	PageContacts        = "contatti"
	PageLogin           = "login"
	PageLogout          = "logout"
	PageRegister        = "register"
	PageJobOffers       = "job-offers"
	PageApplications    = "candidature"
	PageEmail           = "email"
	PageStats           = "statistiche"
	PageSettings        = "settings"
	PageNotFound        = "not-found"
	PageProfileNotFound = "profile-not-found"
)

// MinResemblanceLength is the shortest digit-stripped remainder that
// ResemblesReserved will compare against the reserved set.
const MinResemblanceLength = 3

var reservedRoutes = map[string]struct{}{
	PageHome:            {},
	PageAbout:           {},
	PageCurriculum:      {},
	PageProjects:        {},
	PageCertificates:    {},
	PageContacts:        {},
	PageLogin:           {},
	PageLogout:          {},
	PageRegister:        {},
	PageJobOffers:       {},
	PageApplications:    {},
	PageEmail:           {},
	PageStats:           {},
	PageSettings:        {},
	PageNotFound:        {},
	PageProfileNotFound: {},
	"api":               {},
	"assets":            {},
	"healthz":           {},
}

// IsReserved reports whether segment names an application route.
func IsReserved(segment string) bool {
	_, ok := reservedRoutes[strings.ToLower(segment)]
	return ok
}

// reservedRouteList returns the reserved set in no particular order.
func reservedRouteList() []string {
	out := make([]string, 0, len(reservedRoutes))
	for r := range reservedRoutes {
		out = append(out, r)
	}
	return out
}

// ResemblesReserved reports whether slug is a reserved route with digits mixed
// in, e.g. "about123". Remainders shorter than MinResemblanceLength are too
// ambiguous and never match.
func ResemblesReserved(slug string) bool {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, strings.ToLower(slug))

	if len([]rune(stripped)) < MinResemblanceLength {
		return false
	}
	_, ok := reservedRoutes[stripped]
	return ok
}

// Segments splits a URL path into its non-empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinPath builds an absolute path from segments.
func JoinPath(segments ...string) string {
	return "/" + strings.Join(Segments(strings.Join(segments, "/")), "/")
}
