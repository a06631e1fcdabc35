// Package session provides the per-visitor grant cache and the token
// manager that issues and resolves signed session tokens.
//
// The grant set is a cache only. Losing it (logout, key rotation, process
// restart) never loses access; the durable payment record is the source of
// truth and the cache is re-warmed on the next store hit.
package session

import (
	"sync"

	"github.com/xraph/vitrine/id"
)

// Session is one live visitor session: identity plus the cached set of
// artifact grants. Safe for concurrent use.
type Session struct {
	ID       id.SessionID
	UserID   id.UserID
	Username string

	mu     sync.RWMutex
	grants map[id.ArtifactID]struct{}
}

func newSession(userID id.UserID, username string) *Session {
	return &Session{
		ID:       id.NewSessionID(),
		UserID:   userID,
		Username: username,
		grants:   make(map[id.ArtifactID]struct{}),
	}
}

// Contains reports whether the artifact grant is cached.
func (s *Session) Contains(artifactID id.ArtifactID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[artifactID]
	return ok
}

// Add caches a grant. Idempotent.
func (s *Session) Add(artifactID id.ArtifactID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[artifactID] = struct{}{}
}

// Clear drops every cached grant. Durable records are untouched.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = make(map[id.ArtifactID]struct{})
}

// Grants returns a snapshot of the cached grant set.
func (s *Session) Grants() []id.ArtifactID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.ArtifactID, 0, len(s.grants))
	for aid := range s.grants {
		out = append(out, aid)
	}
	return out
}
