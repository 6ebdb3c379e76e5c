package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/folio/internal/auth"
	"github.com/gosuda/folio/internal/domain"
	"github.com/gosuda/folio/internal/server/middleware"
	"github.com/gosuda/folio/internal/session"
	"github.com/gosuda/folio/internal/tenant"
)

const testJWTSecret = "test-jwt-secret-for-middleware-tests"

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mapFetcher resolves slugs from a fixed map and counts calls.
type mapFetcher struct {
	ids   map[string]int64
	calls int
}

func (f *mapFetcher) FetchProfile(_ context.Context, slug string) (*domain.Profile, error) {
	f.calls++
	id, ok := f.ids[slug]
	if !ok {
		return nil, fmt.Errorf("mapFetcher: %w", domain.ErrNotFound)
	}
	return &domain.Profile{ID: id, Slug: slug}, nil
}

// captureHandler records the tenant snapshot seen by the page handler.
type captureHandler struct {
	called bool
	snap   tenant.Snapshot
	hasCtx bool
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.snap, h.hasCtx = middleware.TenantFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func newRegistry(t *testing.T) *session.Registry {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return session.NewRegistry(ctx, time.Hour)
}

// withSession injects sess into the request context.
func withSession(r *http.Request, sess *session.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeySession, sess))
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// ===========================================================================
// 1. Sessions
// ===========================================================================

func TestSessions_CreatesAndReusesSession(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	var seen []*session.Session
	h := middleware.Sessions(reg, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.SessionFromContext(r.Context())
		require.True(t, ok)
		seen = append(seen, sess)
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/about", http.NoBody))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	req := httptest.NewRequest(http.MethodGet, "/progetti", http.NoBody)
	req.AddCookie(cookies[0])
	rec = serve(h, req)
	assert.Empty(t, rec.Result().Cookies())

	require.Len(t, seen, 2)
	assert.Same(t, seen[0], seen[1])
}

func TestSessions_UnknownCookieStartsFresh(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	h := middleware.Sessions(reg, false)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "expired-session"})
	rec := serve(h, req)

	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "expired-session", rec.Result().Cookies()[0].Value)
	assert.Equal(t, 1, reg.Len())
}

func TestLoadSession_NeverCreatesSessions(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	var found []bool
	h := middleware.LoadSession(reg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := middleware.SessionFromContext(r.Context())
		found = append(found, ok)
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/session/tenant", http.NoBody))
	assert.Empty(t, rec.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/tenant", http.NoBody)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "expired-session"})
	rec = serve(h, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Zero(t, reg.Len())

	sess := reg.Create()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/session/tenant", http.NoBody)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID})
	serve(h, req)

	assert.Equal(t, []bool{false, false, true}, found)
	assert.Equal(t, 1, reg.Len())
}

// ===========================================================================
// 2. ResolveTenant
// ===========================================================================

func TestResolveTenant_AcceptsKnownSlug(t *testing.T) {
	t.Parallel()

	fetcher := &mapFetcher{ids: map[string]int64{"johndoe": 7}}
	resolver := tenant.NewResolver(fetcher, nil)
	sess := newRegistry(t).Create()
	next := &captureHandler{}

	rec := serve(middleware.ResolveTenant(resolver)(next),
		withSession(httptest.NewRequest(http.MethodGet, "/johndoe/about", http.NoBody), sess))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, next.called)
	assert.True(t, next.hasCtx)
	assert.Equal(t, "johndoe", next.snap.Slug)
	assert.Equal(t, "johndoe", rec.Header().Get(middleware.HeaderTenantSlug))
	assert.Equal(t, "7", rec.Header().Get(middleware.HeaderTenantID))

	// Second navigation under the same slug does not hit the backend.
	serve(middleware.ResolveTenant(resolver)(next),
		withSession(httptest.NewRequest(http.MethodGet, "/johndoe/progetti", http.NoBody), sess))
	assert.Equal(t, 1, fetcher.calls)
}

func TestResolveTenant_Redirects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantLoc  string
	}{
		{name: "case normalization keeps query", target: "/JohnDoe/about?tab=2", wantCode: http.StatusFound, wantLoc: "/johndoe/about?tab=2"},
		{name: "unknown tenant", target: "/ghost/about", wantCode: http.StatusFound, wantLoc: "/profile-not-found?slug=ghost"},
		{name: "mistyped owner page", target: "/about123/xyz", wantCode: http.StatusSeeOther, wantLoc: "/not-found?from=%2Fabout123%2Fxyz"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resolver := tenant.NewResolver(&mapFetcher{ids: map[string]int64{"johndoe": 7}}, nil)
			sess := newRegistry(t).Create()
			next := &captureHandler{}

			rec := serve(middleware.ResolveTenant(resolver)(next),
				withSession(httptest.NewRequest(http.MethodGet, tc.target, http.NoBody), sess))

			assert.False(t, next.called)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantLoc, rec.Header().Get("Location"))
		})
	}
}

func TestResolveTenant_UnprefixedRouteClearsState(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewResolver(&mapFetcher{}, nil)
	sess := newRegistry(t).Create()
	sess.State.Bind("johndoe", 7)
	next := &captureHandler{}

	rec := serve(middleware.ResolveTenant(resolver)(next),
		withSession(httptest.NewRequest(http.MethodGet, "/about", http.NoBody), sess))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sess.State.Snapshot().Bound())
	assert.Empty(t, rec.Header().Get(middleware.HeaderTenantSlug))
}

func TestResolvePrefixedTenant_ReservedSlugGoesToWildcard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		wantLoc  string
		wantBind bool
	}{
		{name: "reserved word as slug", target: "/about/curriculum", wantLoc: "/about"},
		{name: "private page as slug", target: "/job-offers/about", wantLoc: "/about"},
		{name: "uppercase reserved word", target: "/Login/about", wantLoc: "/login/about"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fetcher := &mapFetcher{ids: map[string]int64{"johndoe": 7}}
			resolver := tenant.NewResolver(fetcher, nil)
			sess := newRegistry(t).Create()
			sess.State.Bind("johndoe", 7)
			next := &captureHandler{}

			rec := serve(middleware.ResolvePrefixedTenant(resolver)(next),
				withSession(httptest.NewRequest(http.MethodGet, tc.target, http.NoBody), sess))

			assert.False(t, next.called)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tc.wantLoc, rec.Header().Get("Location"))
			assert.Zero(t, fetcher.calls)
			assert.Equal(t, "johndoe", sess.State.Snapshot().Slug)
		})
	}
}

func TestResolvePrefixedTenant_AcceptsKnownSlug(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewResolver(&mapFetcher{ids: map[string]int64{"johndoe": 7}}, nil)
	sess := newRegistry(t).Create()
	next := &captureHandler{}

	rec := serve(middleware.ResolvePrefixedTenant(resolver)(next),
		withSession(httptest.NewRequest(http.MethodGet, "/johndoe/progetti/3", http.NoBody), sess))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, next.called)
	assert.Equal(t, int64(7), next.snap.UserID)
}

func TestResolveTenant_WithoutSessionFails(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewResolver(&mapFetcher{}, nil)
	rec := serve(middleware.ResolveTenant(resolver)(okHandler), httptest.NewRequest(http.MethodGet, "/about", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ===========================================================================
// 3. ClearTenant, Authenticate and RequireOwner
// ===========================================================================

func TestClearTenant_RefreshesOwnerFlag(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueAccessToken(testJWTSecret, 1, "", time.Minute)
	require.NoError(t, err)

	clear := tenant.NewClearResolver(middleware.OwnerRefresher())
	h := middleware.Authenticate(testJWTSecret)(middleware.ClearTenant(clear)(okHandler))

	sess := newRegistry(t).Create()
	sess.State.Bind("johndoe", 7)

	req := withSession(httptest.NewRequest(http.MethodGet, "/login", http.NoBody), sess)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(h, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sess.State.Snapshot().Bound())
	assert.True(t, sess.Owner())

	rec = serve(h, withSession(httptest.NewRequest(http.MethodGet, "/login", http.NoBody), sess))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sess.Owner())
}

func TestRequireOwner(t *testing.T) {
	t.Parallel()

	valid, err := auth.IssueAccessToken(testJWTSecret, 1, "", time.Minute)
	require.NoError(t, err)
	expired, err := auth.IssueAccessToken(testJWTSecret, 1, "", -time.Minute)
	require.NoError(t, err)

	h := middleware.Authenticate(testJWTSecret)(middleware.RequireOwner()(okHandler))

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantCode int
	}{
		{name: "bearer token", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, wantCode: http.StatusOK},
		{name: "lowercase bearer", prepare: func(r *http.Request) { r.Header.Set("Authorization", "bearer "+valid) }, wantCode: http.StatusOK},
		{name: "token cookie", prepare: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: valid})
		}, wantCode: http.StatusOK},
		{name: "no credential", prepare: func(*http.Request) {}, wantCode: http.StatusFound},
		{name: "expired token", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, wantCode: http.StatusFound},
		{name: "garbage token", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, wantCode: http.StatusFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/job-offers", http.NoBody)
			tc.prepare(req)
			rec := serve(h, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantCode == http.StatusFound {
				assert.Equal(t, "/login?notice=not-authorized", rec.Header().Get("Location"))
			}
		})
	}
}

// ===========================================================================
// 4. Wildcard and outcome writing
// ===========================================================================

func TestWildcard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{path: "/randomslug/nosuchpage", want: "/randomslug/about"},
		{path: "/nosuchpage", want: "/about"},
		{path: "/progetti/1/extra", want: "/about"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			rec := serve(middleware.Wildcard(), httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tc.want, rec.Header().Get("Location"))
		})
	}
}

func TestWriteOutcome_SupersededNavigation(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	middleware.WriteOutcome(rec, httptest.NewRequest(http.MethodGet, "/x", http.NoBody), tenant.Block())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "navigation superseded")
}

// ===========================================================================
// 5. RequireTenant
// ===========================================================================

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	sess := newRegistry(t).Create()
	next := &captureHandler{}
	h := middleware.RequireTenant()(next)

	rec := serve(h, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/profile", http.NoBody), sess))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, next.called)

	sess.State.Bind("johndoe", 7)
	rec = serve(h, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/profile", http.NoBody), sess))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), next.snap.UserID)
}

func TestRequireTenant_WithoutSession(t *testing.T) {
	t.Parallel()

	next := &captureHandler{}
	rec := serve(middleware.RequireTenant()(next), httptest.NewRequest(http.MethodGet, "/api/v1/profile", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, next.called)
}

// ===========================================================================
// 6. Rate limiting
// ===========================================================================

func TestRateLimitByIP_BurstExceeded_Returns429(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Very low rate (effectively zero refill during the test) with burst of 2.
	handler := middleware.RateLimitByIP(ctx, 0.001, 2)(okHandler)

	newReq := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/johndoe/public-profile", http.NoBody)
		r.RemoteAddr = ip
		return r
	}

	for i := range 2 {
		require.Equalf(t, http.StatusOK, serve(handler, newReq("10.0.0.1")).Code, "request %d should pass", i+1)
	}

	rec := serve(handler, newReq("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	// Another client is unaffected.
	assert.Equal(t, http.StatusOK, serve(handler, newReq("10.0.0.2")).Code)
}
