package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"lajuana/internal/app/services/auth"
	domainauth "lajuana/internal/domain/auth"
)

const (
	SessionCookieName   = "admin_session"
	sessionContextKey   = "lajuana.session"
	sessionTokenContext = "lajuana.session_token"
)

// AuthMiddleware resolves the admin session from the cookie or a bearer
// token. Requests without a valid session continue anonymously.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := requestToken(c)
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	session, err := m.Service.Resolve(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("session validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(sessionContextKey, session)
	c.Set(sessionTokenContext, token)
	c.Request = c.Request.WithContext(domainauth.ContextWithSession(c.Request.Context(), session))
	c.Next()
}

// RequireAdmin stops requests that carry no resolved session.
func RequireAdmin(c *gin.Context) {
	if _, ok := currentSession(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	c.Next()
}

func currentSession(c *gin.Context) (*domainauth.Session, bool) {
	val, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	s, ok := val.(*domainauth.Session)
	return s, ok && s != nil
}

func requestToken(c *gin.Context) string {
	if token := extractBearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
