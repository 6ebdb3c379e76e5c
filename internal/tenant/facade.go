package tenant

import (
	"net/url"
	"strings"
)

// Link returns the internal path for segments as seen from snap: prefixed
// with the tenant slug when one is bound, unprefixed otherwise. It must be
// called with a fresh Snapshot on every use.
func Link(snap Snapshot, segments ...string) string {
	if snap.Slug == "" {
		return JoinPath(segments...)
	}
	return JoinPath(append([]string{snap.Slug}, segments...)...)
}

// NavigateOptions tune a facade navigation.
type NavigateOptions struct {
	Replace  bool
	Query    url.Values
	Fragment string
}

// Navigator is the underlying navigation primitive.
type Navigator interface {
	Navigate(path string, replace bool)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string, replace bool)

func (f NavigatorFunc) Navigate(path string, replace bool) { f(path, replace) }

// RouterFacade prefixes internal navigations with the current tenant slug so
// callers never branch on whether they are serving a visitor view.
type RouterFacade struct {
	state *State
	nav   Navigator
}

func NewRouterFacade(st *State, nav Navigator) *RouterFacade {
	return &RouterFacade{state: st, nav: nav}
}

// Href builds the tenant-aware target without navigating.
func (f *RouterFacade) Href(segments []string, opts NavigateOptions) string {
	var b strings.Builder
	b.WriteString(Link(f.state.Snapshot(), segments...))
	if len(opts.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(opts.Query.Encode())
	}
	if opts.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(url.PathEscape(opts.Fragment))
	}
	return b.String()
}

func (f *RouterFacade) Navigate(segments []string, opts NavigateOptions) {
	f.nav.Navigate(f.Href(segments, opts), opts.Replace)
}
