package tenant

import "sync"

// Snapshot is a consistent read of State. Slug and UserID are either both set
// or both zero.
type Snapshot struct {
	Slug    string `json:"slug,omitempty"`
	UserID  int64  `json:"userId,omitempty"`
	Version uint64 `json:"-"`
}

// Bound reports whether a tenant is in scope.
func (s Snapshot) Bound() bool {
	return s.Slug != "" && s.UserID > 0
}

// Ticket orders the navigations of one State by the time they started.
type Ticket uint64

// State is the tenant currently in scope for one browsing session.
// Only Resolver and ClearResolver write to it; everything else reads
// Snapshots.
//
// Every write is made on behalf of a navigation holding a Ticket. A write
// from a navigation that started before the last writer is refused, so a
// slow lookup can never overwrite what a newer navigation decided.
type State struct {
	mu       sync.RWMutex
	snap     Snapshot
	issued   Ticket
	writer   Ticket
	nextSub  int
	watchers map[int]func(Snapshot)
}

func NewState() *State {
	return &State{watchers: make(map[int]func(Snapshot))}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Begin issues the ticket for a navigation that starts now.
func (s *State) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Bind sets slug and user id together as a navigation starting now. An empty
// slug or non-positive id clears the state instead, so a half-bound state is
// never observable.
func (s *State) Bind(slug string, userID int64) Snapshot {
	snap, _ := s.BindFor(s.Begin(), slug, userID)
	return snap
}

// Clear resets the state as a navigation starting now.
func (s *State) Clear() Snapshot {
	snap, _ := s.ClearFor(s.Begin())
	return snap
}

// BindFor is Bind on behalf of the navigation holding t. It reports false,
// and leaves the state untouched, when a navigation started after t has
// already written.
func (s *State) BindFor(t Ticket, slug string, userID int64) (Snapshot, bool) {
	if slug == "" || userID <= 0 {
		return s.ClearFor(t)
	}
	return s.write(t, Snapshot{Slug: slug, UserID: userID})
}

// ClearFor is Clear on behalf of the navigation holding t.
func (s *State) ClearFor(t Ticket) (Snapshot, bool) {
	return s.write(t, Snapshot{})
}

// Subscribe registers fn to be called after every write. The returned func
// removes the subscription.
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *State) write(t Ticket, next Snapshot) (Snapshot, bool) {
	s.mu.Lock()
	if t < s.writer {
		cur := s.snap
		s.mu.Unlock()
		return cur, false
	}
	s.writer = t
	next.Version = s.snap.Version + 1
	s.snap = next
	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(next)
	}
	return next, true
}
