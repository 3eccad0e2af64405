// Package session holds the in-memory pending-join slot shared by the link
// receiver and the post-login hook.
package session

import (
	"sync"

	"github.com/circlapp/circl-link-agent/internal/domain"
)

// Session holds at most one circle waiting for a login. A newer deep link
// replaces an unconsumed one; nothing is queued and nothing is persisted.
type Session struct {
	mu      sync.Mutex
	pending *domain.CircleID
}

func New() *Session {
	return &Session{}
}

// SetPending parks id and returns the value it replaced, if any.
func (s *Session) SetPending(id domain.CircleID) (replaced *domain.CircleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced = s.pending
	s.pending = &id
	return replaced
}

// TakePending returns the parked circle and clears the slot.
func (s *Session) TakePending() (domain.CircleID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return 0, false
	}
	id := *s.pending
	s.pending = nil
	return id, true
}

// DeferUnlessLoggedIn calls loggedIn and parks id when it reports no user.
// CompleteLogin holds the same lock, so a login racing this call either
// stores its user before loggedIn runs or finds id in the slot afterwards.
func (s *Session) DeferUnlessLoggedIn(id domain.CircleID, loggedIn func() (bool, error)) (deferred bool, replaced *domain.CircleID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := loggedIn()
	if err != nil || ok {
		return false, nil, err
	}
	replaced = s.pending
	s.pending = &id
	return true, replaced, nil
}

// CompleteLogin calls store, which persists the user, and then takes the
// parked circle. Nothing is taken when store fails.
func (s *Session) CompleteLogin(store func() error) (domain.CircleID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := store(); err != nil {
		return 0, false, err
	}
	if s.pending == nil {
		return 0, false, nil
	}
	id := *s.pending
	s.pending = nil
	return id, true, nil
}

// Pending returns a copy of the parked circle without consuming it.
func (s *Session) Pending() *domain.CircleID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	id := *s.pending
	return &id
}
