package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"lajuana/internal/infra/config"
	"lajuana/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Occupancy(c *gin.Context)
	Quote(c *gin.Context)
	Feed(c *gin.Context)
}

type CalendarHTTP interface {
	View(c *gin.Context)
	SetDay(c *gin.Context)
	RepriceDay(c *gin.Context)
	CancelReservation(c *gin.Context)
	CreateReservation(c *gin.Context)
}

type Handlers struct {
	Availability   AvailabilityHTTP
	Calendar       CalendarHTTP
	Auth           AuthHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without touching the global gin mode.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", RequireAdmin, h.Auth.Me)
	}
	if h.Availability != nil {
		api.GET("/availability", h.Availability.Occupancy)
		api.GET("/availability/quote", h.Availability.Quote)
		api.GET("/calendar/feed.ics", h.Availability.Feed)
	}
	if h.Calendar != nil {
		admin := api.Group("/admin", RequireAdmin)
		admin.GET("/calendar", h.Calendar.View)
		admin.PUT("/calendar/days/:date", h.Calendar.SetDay)
		admin.PUT("/calendar/days/:date/price", h.Calendar.RepriceDay)
		admin.POST("/reservations", h.Calendar.CreateReservation)
		admin.POST("/reservations/:id/cancel", h.Calendar.CancelReservation)
	}
	return router
}

// corsConfig allows credentials, so origins must be explicit; a wildcard
// entry is dropped.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", obs.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o != "*" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
