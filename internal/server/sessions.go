package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-contactform/pkg/contact"
)

// Session pairs a visitor's form with the CSRF token issued to it.
type Session struct {
	ID   string
	CSRF string
	Form *contact.Form

	lastSeen time.Time
}

// SessionStore keeps form sessions in memory and drops them after ttl of
// inactivity. Expired sessions are swept whenever a new one is created; when
// the store is still at its limit the least recently seen session is evicted.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	limit    int
	now      func() time.Time
	newForm  func() *contact.Form
	onChange func(active int)
}

// NewSessionStore builds a store that creates forms with newForm. A limit of
// zero or less leaves the store unbounded.
func NewSessionStore(ttl time.Duration, limit int, newForm func() *contact.Form) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		limit:    limit,
		now:      time.Now,
		newForm:  newForm,
	}
}

// Get returns a live session and refreshes its idle timer.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(session, now) {
		delete(s.sessions, id)
		s.notifyLocked()
		return nil, false
	}
	session.lastSeen = now
	return session, true
}

// Create starts a new session with a pristine form.
func (s *SessionStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
		}
	}
	for s.limit > 0 && len(s.sessions) >= s.limit {
		s.evictOldestLocked()
	}

	session := &Session{
		ID:       uuid.NewString(),
		CSRF:     uuid.NewString(),
		Form:     s.newForm(),
		lastSeen: now,
	}
	s.sessions[session.ID] = session
	s.notifyLocked()
	return session
}

// Len reports the number of sessions held, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, session := range s.sessions {
		if oldestID == "" || session.lastSeen.Before(oldest) {
			oldestID, oldest = id, session.lastSeen
		}
	}
	delete(s.sessions, oldestID)
}

func (s *SessionStore) expired(session *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.lastSeen) > s.ttl
}

func (s *SessionStore) notifyLocked() {
	if s.onChange != nil {
		s.onChange(len(s.sessions))
	}
}
