package memory

import (
	"context"
	"sync"
	"time"

	domainauth "lajuana/internal/domain/auth"
)

// SessionStore keeps admin sessions in process memory. Sessions are lost on
// restart, which only forces the admin to log in again.
type SessionStore struct {
	mu           sync.RWMutex
	tokens       map[domainauth.Token]*domainauth.Session
	subjectIndex map[string]map[domainauth.Token]struct{}
	now          func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		tokens:       make(map[domainauth.Token]*domainauth.Session),
		subjectIndex: make(map[string]map[domainauth.Token]struct{}),
		now:          time.Now,
	}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[session.Token] = cloneSession(session)
	if _, ok := s.subjectIndex[session.Subject]; !ok {
		s.subjectIndex[session.Subject] = make(map[domainauth.Token]struct{})
	}
	s.subjectIndex[session.Subject][session.Token] = struct{}{}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	session, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.tokens[token]
	if !ok {
		return nil
	}
	delete(s.tokens, token)
	if index, ok := s.subjectIndex[session.Subject]; ok {
		delete(index, token)
		if len(index) == 0 {
			delete(s.subjectIndex, session.Subject)
		}
	}
	return nil
}

func (s *SessionStore) DeleteBySubject(ctx context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.subjectIndex[subject]
	if !ok {
		return nil
	}
	for token := range index {
		delete(s.tokens, token)
	}
	delete(s.subjectIndex, subject)
	return nil
}

func cloneSession(s *domainauth.Session) *domainauth.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
