package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	gin "github.com/gin-gonic/gin"

	calendarapp "lajuana/internal/app/handlers/calendar"
	"lajuana/internal/app/middleware"
	domainauth "lajuana/internal/domain/auth"
	"lajuana/internal/domain/shared/daterange"
	"lajuana/internal/infra/hospitable"
)

// respondError maps application and provider failures to HTTP. Provider
// answers keep their status; a JSON body is re-emitted as is, any other body
// is wrapped whole as {"error": text}.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	if ue, ok := hospitable.AsUpstream(err); ok {
		if logger != nil {
			logger.Warn("upstream answer passed through", "op", ue.Op, "status", ue.StatusCode, "body", ue.Snippet())
		}
		status := ue.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		if ue.JSONBody() {
			c.Data(status, "application/json; charset=utf-8", ue.Body)
			return
		}
		c.JSON(status, gin.H{"error": string(ue.Body)})
		return
	}

	var urlErr *url.Error
	switch {
	case errors.Is(err, middleware.ErrValidation),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainauth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
	case errors.Is(err, calendarapp.ErrDayNotInFeed):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, hospitable.ErrMissingToken):
		logError(logger, "provider not configured", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar provider not configured"})
	case errors.Is(err, context.DeadlineExceeded):
		logError(logger, "provider timed out", err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "calendar provider timed out"})
	case errors.As(err, &urlErr):
		logError(logger, "provider unreachable", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "calendar provider unavailable"})
	default:
		logError(logger, "request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func logError(logger *slog.Logger, msg string, err error) {
	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
