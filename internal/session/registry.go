// Package session keeps one tenant.State per browsing session so that tenant
// resolution persists across the navigations of a single visitor.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/folio/internal/tenant"
)

// CookieName carries the session id.
const CookieName = "folio_session"

// Session is the per-visitor navigation context.
type Session struct {
	ID    string
	State *tenant.State

	owner      atomic.Bool
	scoped     atomic.Bool
	lastAccess atomic.Int64
	unwatch    func()
}

// Owner reports whether the last credential check found the site owner.
func (s *Session) Owner() bool { return s.owner.Load() }

func (s *Session) SetOwner(owner bool) { s.owner.Store(owner) }

// Scoped reports whether the session currently has a tenant in scope.
func (s *Session) Scoped() bool { return s.scoped.Load() }

func (s *Session) touch(now time.Time) { s.lastAccess.Store(now.UnixNano()) }

func (s *Session) watch() {
	s.unwatch = s.State.Subscribe(func(snap tenant.Snapshot) {
		s.scoped.Store(snap.Bound())
		log.Debug().
			Str("session", s.ID).
			Str("slug", snap.Slug).
			Int64("user_id", snap.UserID).
			Uint64("version", snap.Version).
			Msg("session: tenant scope changed")
	})
}

// Registry maps session ids to sessions. Idle sessions are swept
// periodically.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
}

// NewRegistry creates a Registry and starts its sweeper, which stops when ctx
// is done.
func NewRegistry(ctx context.Context, idle time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
	}

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	return r
}

// Get returns the live session for id and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.touch(r.now())
	return s, true
}

// Create starts a new session with a cleared tenant state.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:    uuid.NewString(),
		State: tenant.NewState(),
	}
	s.watch()

	r.mu.Lock()
	s.touch(r.now())
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s
}

// Sweep drops sessions idle for longer than the configured timeout.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle).UnixNano()
	removed, scoped := 0, 0
	for id, s := range r.sessions {
		if s.lastAccess.Load() < cutoff {
			s.unwatch()
			delete(r.sessions, id)
			removed++
			continue
		}
		if s.Scoped() {
			scoped++
		}
	}
	if removed > 0 {
		log.Debug().
			Int("removed", removed).
			Int("remaining", len(r.sessions)).
			Int("scoped", scoped).
			Msg("session: swept idle sessions")
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
