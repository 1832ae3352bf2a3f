package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSession(CreateSessionParams{Token: " tok ", Subject: "admin", TTL: time.Hour, Now: now})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Token != "tok" || !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.Expired(now.Add(30*time.Minute)) || !s.Expired(now.Add(time.Hour)) {
		t.Fatalf("expiry boundary wrong")
	}
}

func TestNewSessionValidation(t *testing.T) {
	cases := []struct {
		params CreateSessionParams
		want   error
	}{
		{CreateSessionParams{Subject: "admin", TTL: time.Hour}, ErrTokenRequired},
		{CreateSessionParams{Token: "t", TTL: time.Hour}, ErrSubjectRequired},
		{CreateSessionParams{Token: "t", Subject: "admin"}, ErrTTLInvalid},
	}
	for _, tc := range cases {
		if _, err := NewSession(tc.params); !errors.Is(err, tc.want) {
			t.Errorf("want %v, got %v", tc.want, err)
		}
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionFromContext(ctx); ok {
		t.Fatalf("empty context must not carry a session")
	}
	ctx = ContextWithSession(ctx, &Session{Token: "t", Subject: "admin"})
	s, ok := SessionFromContext(ctx)
	if !ok || s.Subject != "admin" {
		t.Fatalf("session not found in context")
	}
}
