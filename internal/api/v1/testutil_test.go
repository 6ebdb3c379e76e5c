package v1_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gosuda/folio/internal/auth"
	"github.com/gosuda/folio/internal/domain"
	"github.com/gosuda/folio/internal/server/middleware"
	"github.com/gosuda/folio/internal/session"
	"github.com/gosuda/folio/internal/tenant"
)

// ---------------------------------------------------------------------------
// Context helpers: inject session/tenant/claims into context for DoCtx
// ---------------------------------------------------------------------------

func newSession(t *testing.T) *session.Session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return session.NewRegistry(ctx, time.Hour).Create()
}

func sessionCtx(sess *session.Session) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeySession, sess)
}

func tenantCtx(slug string, id int64) context.Context {
	snap := tenant.Snapshot{Slug: slug, UserID: id}
	return context.WithValue(context.Background(), middleware.ContextKeyTenant, snap)
}

func ownerCtx(slug string) context.Context {
	return ownerCtxAs(1, slug)
}

func ownerCtxAs(userID int64, slug string) context.Context {
	claims := &auth.Claims{UserID: userID, Slug: slug, Role: auth.RoleOwner}
	return context.WithValue(context.Background(), middleware.ContextKeyClaims, claims)
}

// ---------------------------------------------------------------------------
// Mock ProfileStore / ProfileRepository
// ---------------------------------------------------------------------------

type mockStore struct {
	profiles domain.ProfileRepository
}

func (m *mockStore) Profiles() domain.ProfileRepository { return m.profiles }

type mockProfileRepo struct {
	getBySlugFunc func(ctx context.Context, slug string) (*domain.Profile, error)
	upsertFunc    func(ctx context.Context, p *domain.Profile) error
}

func (m *mockProfileRepo) GetBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	return m.upsertFunc(ctx, p)
}

// ---------------------------------------------------------------------------
// Mock ProfileFetcher / ProfileCache
// ---------------------------------------------------------------------------

type fetcherFunc func(ctx context.Context, slug string) (*domain.Profile, error)

func (f fetcherFunc) FetchProfile(ctx context.Context, slug string) (*domain.Profile, error) {
	return f(ctx, slug)
}

// recordingCache wraps tenant.MemoryCache and remembers evictions.
type recordingCache struct {
	*tenant.MemoryCache

	mu      sync.Mutex
	evicted []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{MemoryCache: tenant.NewMemoryCache(time.Minute)}
}

func (c *recordingCache) Evict(ctx context.Context, slug string) error {
	c.mu.Lock()
	c.evicted = append(c.evicted, slug)
	c.mu.Unlock()
	return c.MemoryCache.Evict(ctx, slug)
}
