package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainauth "lajuana/internal/domain/auth"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// DefaultSessionTTL matches the admin cookie lifetime.
const DefaultSessionTTL = 7 * 24 * time.Hour

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Admin is the single account allowed into the admin panel.
type Admin struct {
	Username     string
	PasswordHash string
}

type Service struct {
	Admin      Admin
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
	// Equal compares usernames; defaults to plain equality.
	Equal func(a, b string) bool
}

type LoginParams struct {
	Username string
	Password string
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*domainauth.Session, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(params.Username)
	if username == "" || params.Password == "" || s.Admin.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	// the hash comparison runs even for a wrong username so timing does not leak it
	hashErr := s.Passwords.Compare(s.Admin.PasswordHash, params.Password)
	if !s.equal(username, s.Admin.Username) || hashErr != nil {
		if s.Logger != nil {
			s.Logger.Warn("admin login rejected", "username", username)
		}
		return nil, ErrInvalidCredentials
	}
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:   domainauth.Token(token),
		Subject: s.Admin.Username,
		TTL:     s.sessionTTL(),
		Now:     time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("admin authenticated", "subject", session.Subject, "expires_at", session.ExpiresAt)
	}
	return session, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.Token(token)); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("session terminated")
	}
	return nil
}

// Resolve returns the live session behind token. Sessions of a subject that is
// no longer the configured admin are revoked.
func (s *Service) Resolve(ctx context.Context, token string) (*domainauth.Session, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if !s.equal(session.Subject, s.Admin.Username) {
		_ = s.Sessions.DeleteBySubject(ctx, session.Subject)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

// Authorize admits messages only when ctx carries a resolved admin session.
func (s *Service) Authorize(ctx context.Context, message any) error {
	session, ok := domainauth.SessionFromContext(ctx)
	if !ok || session.Expired(time.Now()) {
		return domainauth.ErrUnauthenticated
	}
	return nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

func (s *Service) equal(a, b string) bool {
	if s.Equal != nil {
		return s.Equal(a, b)
	}
	return a == b
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
