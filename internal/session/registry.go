// Package session holds per-subscriber state shared by the dispatcher and the
// watcher.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// Registry is the process-wide session store. Sessions are created on first
// access with the configured defaults and live for the process lifetime.
//
// All access goes through a single mutex held only for the in-memory
// read-modify-write. Callers receive copies; Update is the only way to change
// a session.
type Registry struct {
	mu       sync.Mutex
	sessions map[domain.RecipientID]*domain.Session
	defaults domain.SessionDefaults
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(defaults domain.SessionDefaults) *Registry {
	return &Registry{
		sessions: make(map[domain.RecipientID]*domain.Session),
		defaults: defaults,
		now:      time.Now,
	}
}

// Get returns a copy of the session for id, creating it if needed.
func (r *Registry) Get(id domain.RecipientID) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.lookup(id)
}

// Update applies fn to the session for id under the lock and returns the
// resulting copy. fn must not block.
func (r *Registry) Update(id domain.RecipientID, fn func(s *domain.Session)) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	fn(s)
	s.Recipient = id
	return *s
}

// Peek returns the session for id without creating it.
func (r *Registry) Peek(id domain.RecipientID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return *s, true
}

// List returns a snapshot of every session ordered by recipient.
func (r *Registry) List() []domain.Session {
	r.mu.Lock()
	out := make([]domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Recipient < out[j].Recipient })
	return out
}

// Stats summarizes the registry.
type Stats struct {
	Sessions       int `json:"sessions"`
	WatchersActive int `json:"watchers_active"`
}

// Stats returns the session and active watcher counts.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Stats{Sessions: len(r.sessions)}
	for _, s := range r.sessions {
		if s.WatcherEnabled {
			st.WatchersActive++
		}
	}
	return st
}

func (r *Registry) lookup(id domain.RecipientID) *domain.Session {
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := &domain.Session{
		Recipient:       id,
		Pair:            r.defaults.Pair,
		NotifyThreshold: r.defaults.NotifyThreshold,
		Locale:          r.defaults.Locale,
		CreatedAt:       r.now(),
	}
	r.sessions[id] = s
	return s
}
