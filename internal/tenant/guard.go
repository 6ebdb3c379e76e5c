package tenant

import (
	"net/url"
	"strings"
)

// NoticeNotAuthorized is shown on the landing page after AuthGuard blocks.
const NoticeNotAuthorized = "not-authorized"

// LoginPath is the public landing route for blocked private pages.
func LoginPath(notice string) string {
	if notice == "" {
		return "/" + PageLogin
	}
	return "/" + PageLogin + "?" + url.Values{"notice": {notice}}.Encode()
}

// AuthGuard lets the navigation through only when a valid credential is
// present. It runs after tenant resolution and does not look at the slug.
func AuthGuard(hasCredential bool) Outcome {
	if hasCredential {
		return Accept()
	}
	return BlockTo(LoginPath(NoticeNotAuthorized))
}

// WildcardGuard handles paths that matched no route. A path whose first
// segment is not an application page is taken as a valid slug with an
// unknown sub-page and sent to that tenant's about page; anything else goes
// to the owner's about page. It always blocks.
func WildcardGuard(segments []string) Outcome {
	if len(segments) >= 2 && !IsReserved(segments[0]) {
		return BlockTo(JoinPath(strings.ToLower(segments[0]), PageAbout))
	}
	return BlockTo(JoinPath(PageAbout))
}
