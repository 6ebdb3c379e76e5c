package tenant

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/gosuda/folio/internal/domain"
)

// DefaultFetchTimeout bounds a single slug lookup. The lookup runs detached
// from the navigation that started it so concurrent waiters share it.
const DefaultFetchTimeout = 10 * time.Second

// Terminal redirect targets. Each is a reserved route, so resolving it
// clears the state and accepts without further redirects.
func HomePath() string { return "/" }

func NotFoundPath(from string) string {
	if from == "" {
		return "/" + PageNotFound
	}
	return "/" + PageNotFound + "?" + url.Values{"from": {from}}.Encode()
}

func ProfileNotFoundPath(slug string) string {
	return "/" + PageProfileNotFound + "?" + url.Values{"slug": {slug}}.Encode()
}

// Resolver runs the tenant resolution state machine for slug-prefixed and
// unprefixed navigations.
type Resolver struct {
	fetcher domain.ProfileFetcher
	cache   domain.ProfileCache
	timeout time.Duration
	flight  singleflight.Group
}

type ResolverOption func(*Resolver)

func WithFetchTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(fetcher domain.ProfileFetcher, cache domain.ProfileCache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		cache:   cache,
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides the outcome of navigating to segments and updates st
// accordingly. It never fails: every error becomes a redirect. A reserved
// first segment is an unprefixed page and clears the tenant scope.
func (r *Resolver) Resolve(ctx context.Context, st *State, segments []string) Outcome {
	return r.logged(segments, r.resolve(ctx, st, st.Begin(), segments))
}

// ResolvePrefixed is Resolve for routes that always carry a slug. A
// reserved word in the slug position is no tenant and no known page, so it
// goes to the wildcard guard after case normalization.
func (r *Resolver) ResolvePrefixed(ctx context.Context, st *State, segments []string) Outcome {
	if len(segments) > 0 && segments[0] == strings.ToLower(segments[0]) && IsReserved(segments[0]) {
		return r.logged(segments, WildcardGuard(segments))
	}
	return r.Resolve(ctx, st, segments)
}

func (r *Resolver) logged(segments []string, out Outcome) Outcome {
	ev := log.Debug().Str("path", JoinPath(segments...)).Str("outcome", out.Kind.String())
	if out.Path != "" {
		ev = ev.Str("target", out.Path)
	}
	ev.Msg("tenant: navigation resolved")
	return out
}

func (r *Resolver) resolve(ctx context.Context, st *State, t Ticket, segments []string) Outcome {
	if len(segments) == 0 || segments[0] == "" {
		return clearAndAccept(st, t)
	}

	first := segments[0]
	slug := strings.ToLower(first)
	if slug != first {
		normalized := append([]string{slug}, segments[1:]...)
		return Redirect(JoinPath(normalized...), true)
	}

	if IsReserved(slug) {
		return clearAndAccept(st, t)
	}

	if out, ok := r.settled(ctx, st, t, slug); ok {
		return out
	}

	// A slug like "about123" with a sub-page that is not an application page
	// is treated as a typo under the owner's site, not as a tenant lookup.
	if ResemblesReserved(slug) && (len(segments) < 2 || !IsReserved(segments[1])) {
		if _, ok := st.ClearFor(t); !ok {
			return Block()
		}
		return Redirect(NotFoundPath(JoinPath(segments...)), false)
	}

	return r.fetch(ctx, st, t, slug)
}

func clearAndAccept(st *State, t Ticket) Outcome {
	if _, ok := st.ClearFor(t); !ok {
		return Block()
	}
	return Accept()
}

// settled reports whether slug is already resolved, either in st or in the
// profile cache. A cache hit binds st.
func (r *Resolver) settled(ctx context.Context, st *State, t Ticket, slug string) (Outcome, bool) {
	if snap := st.Snapshot(); snap.Bound() && snap.Slug == slug {
		return Accept(), true
	}

	if r.cache == nil {
		return Outcome{}, false
	}
	p, err := r.cache.Lookup(ctx, slug)
	if err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("tenant: profile cache lookup failed")
		return Outcome{}, false
	}
	if !p.Resolvable() {
		return Outcome{}, false
	}

	return r.bind(st, t, slug, p.ID), true
}

// bind records slug for the navigation holding t. A newer navigation that
// already wrote wins; this one is then superseded unless it landed on the
// same tenant.
func (r *Resolver) bind(st *State, t Ticket, slug string, id int64) Outcome {
	if cur, ok := st.BindFor(t, slug, id); !ok && cur.Slug != slug {
		log.Debug().Str("slug", slug).Str("current", cur.Slug).Msg("tenant: discarding stale lookup")
		return Block()
	}
	return Accept()
}

func (r *Resolver) fetch(ctx context.Context, st *State, t Ticket, slug string) Outcome {
	// State or cache may have been filled by an overlapping navigation or
	// by the profile loader since the first check.
	if out, ok := r.settled(ctx, st, t, slug); ok {
		return out
	}

	ch := r.flight.DoChan(slug, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.fetcher.FetchProfile(fctx, slug)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		log.Debug().Str("slug", slug).Msg("tenant: navigation abandoned during lookup")
		return Block()
	}

	if res.Err != nil {
		return r.failed(ctx, st, t, slug, res.Err)
	}

	p, _ := res.Val.(*domain.Profile)
	if !p.Resolvable() {
		if _, ok := st.ClearFor(t); !ok {
			return Block()
		}
		return Redirect(NotFoundPath(""), true)
	}

	return r.bind(st, t, slug, p.ID)
}

func (r *Resolver) failed(ctx context.Context, st *State, t Ticket, slug string, err error) Outcome {
	if out, ok := r.settled(ctx, st, t, slug); ok {
		return out
	}

	if _, ok := st.ClearFor(t); !ok {
		log.Debug().Str("slug", slug).Msg("tenant: discarding stale lookup failure")
		return Block()
	}
	if errors.Is(err, domain.ErrNotFound) {
		return Redirect(ProfileNotFoundPath(slug), true)
	}

	log.Warn().Err(err).Str("slug", slug).Msg("tenant: slug lookup failed")
	return Redirect(HomePath(), true)
}
