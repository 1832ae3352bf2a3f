package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrTokenRequired   = errors.New("auth: token is required")
	ErrSubjectRequired = errors.New("auth: subject is required")
	ErrTTLInvalid      = errors.New("auth: ttl must be positive")
	ErrSessionNotFound = errors.New("auth: session not found")
	ErrUnauthenticated = errors.New("auth: admin session required")
)

type Token string

// Session is a server-side admin login. The token is the only thing the
// browser holds; whether it is still valid is decided here.
type Session struct {
	Token     Token
	Subject   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token   Token
	Subject string
	TTL     time.Duration
	Now     time.Time
}

func NewSession(params CreateSessionParams) (*Session, error) {
	token := strings.TrimSpace(string(params.Token))
	if token == "" {
		return nil, ErrTokenRequired
	}
	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	if params.TTL <= 0 {
		return nil, ErrTTLInvalid
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Session{
		Token:     Token(token),
		Subject:   subject,
		CreatedAt: now,
		ExpiresAt: now.Add(params.TTL),
	}, nil
}

func (s *Session) Expired(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return !s.ExpiresAt.After(at.UTC())
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
	DeleteBySubject(ctx context.Context, subject string) error
}

type sessionKey struct{}

// ContextWithSession marks ctx as carrying an authenticated admin.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
