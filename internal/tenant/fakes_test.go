package tenant_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gosuda/folio/internal/domain"
)

// fakeFetcher resolves slugs from a fixed table and counts calls. When gate
// is non-nil every call blocks until gate is closed, after signalling on
// started. gates holds per-slug gates that take precedence over gate.
type fakeFetcher struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	errs     map[string]error
	calls    atomic.Int32
	gate     chan struct{}
	gates    map[string]chan struct{}
	started  chan string
	onFetch  func(slug string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		profiles: make(map[string]*domain.Profile),
		errs:     make(map[string]error),
	}
}

func (f *fakeFetcher) withProfile(slug string, id int64) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[slug] = &domain.Profile{ID: id, Slug: slug}
	return f
}

func (f *fakeFetcher) withError(slug string, err error) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[slug] = err
	return f
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, slug string) (*domain.Profile, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- slug
	}
	gate := f.gate
	if g, ok := f.gates[slug]; ok {
		gate = g
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.onFetch != nil {
		f.onFetch(slug)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[slug]; ok {
		return nil, err
	}
	if p, ok := f.profiles[slug]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("fakeFetcher: %s: %w", slug, domain.ErrNotFound)
}

// errCache fails every lookup.
type errCache struct{}

func (errCache) Lookup(context.Context, string) (*domain.Profile, error) {
	return nil, errors.New("cache down")
}
func (errCache) Store(context.Context, *domain.Profile) error { return nil }
func (errCache) Evict(context.Context, string) error          { return nil }
